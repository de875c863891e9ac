package errors

// Error codes returned in the "Code" field next to "Errors".
// Format: CATEGORY_DETAIL

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // no or unknown token
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // login failed
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID" // confirm, reset or ticket token
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"

	// authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzShopOnly  = "AUTHZ_SHOP_ONLY"

	// validation
	ValidationMissingArguments = "VALIDATION_MISSING_ARGUMENTS"
	ValidationInvalidInput     = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID        = "VALIDATION_INVALID_ID"
	ValidationInvalidURL       = "VALIDATION_INVALID_URL"
	ValidationRequired         = "VALIDATION_REQUIRED"

	// resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// shop and catalog
	ShopNotFound         = "SHOP_NOT_FOUND"
	PriceListFetchFailed = "PRICE_LIST_FETCH_FAILED"
	PriceListInvalid     = "PRICE_LIST_INVALID"
	PriceListBusy        = "PRICE_LIST_IMPORT_IN_PROGRESS"

	// basket and orders
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderShared            = "ORDER_SHARED"
	ContactNotFound        = "CONTACT_NOT_FOUND"

	// upload
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadUnavailable     = "UPLOAD_UNAVAILABLE"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)

// MissingArguments is the generic message for absent required fields.
const MissingArguments = "All necessary arguments are not specified"
