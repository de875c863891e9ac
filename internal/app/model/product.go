package model

type Product struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	Name       string `gorm:"size:80;not null;index" json:"name"`
	CategoryID uint   `gorm:"not null;index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category"`
}

func (Product) TableName() string {
	return "products"
}

// ProductInfo is one shop's offer of a product. A price-list import replaces
// every ProductInfo of the shop.
type ProductInfo struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	Model      string `gorm:"size:80" json:"model"`
	ExternalID uint   `gorm:"not null;uniqueIndex:idx_product_info_unique,priority:3" json:"external_id"` // id inside the price list
	ProductID  uint   `gorm:"not null;uniqueIndex:idx_product_info_unique,priority:1" json:"-"`
	ShopID     uint   `gorm:"not null;uniqueIndex:idx_product_info_unique,priority:2;index" json:"-"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	Price      int    `gorm:"not null" json:"price"`
	PriceRRC   int    `gorm:"column:price_rrc;not null" json:"price_rrc"` // recommended retail price

	Product           Product            `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product"`
	Shop              Shop               `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE" json:"shop"`
	ProductParameters []ProductParameter `gorm:"foreignKey:ProductInfoID;constraint:OnDelete:CASCADE" json:"product_parameters"`
}

func (ProductInfo) TableName() string {
	return "product_infos"
}

type Parameter struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:40;not null;uniqueIndex" json:"name"`
}

func (Parameter) TableName() string {
	return "parameters"
}

type ProductParameter struct {
	ID            uint   `gorm:"primarykey" json:"-"`
	ProductInfoID uint   `gorm:"not null;uniqueIndex:idx_product_parameter_unique,priority:1" json:"-"`
	ParameterID   uint   `gorm:"not null;uniqueIndex:idx_product_parameter_unique,priority:2" json:"-"`
	Value         string `gorm:"size:100;not null" json:"value"`

	Parameter Parameter `gorm:"foreignKey:ParameterID;constraint:OnDelete:CASCADE" json:"parameter"`
}

func (ProductParameter) TableName() string {
	return "product_parameters"
}
