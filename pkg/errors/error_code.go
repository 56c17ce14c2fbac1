package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103

	// Persistence errors (200-299)
	ErrCodeDataNotFound        ErrorCode = 200
	ErrCodeQueryFailed         ErrorCode = 201
	ErrCodeConstraintViolation ErrorCode = 202
	ErrCodeStoreUnavailable    ErrorCode = 203

	// Transport errors (300-399)
	ErrCodeConnectFailed ErrorCode = 300
	ErrCodeReadFailed    ErrorCode = 301
	ErrCodeWriteFailed   ErrorCode = 302

	// Protocol errors (400-499)
	ErrCodeFrameParseFailed  ErrorCode = 400
	ErrCodeUnexpectedFrame   ErrorCode = 401
	ErrCodeAuthFailed        ErrorCode = 402
	ErrCodeSubscribeRejected ErrorCode = 403

	// Broker errors (500-599)
	ErrCodeBrokerUnavailable   ErrorCode = 500
	ErrCodeOrderForbidden      ErrorCode = 501
	ErrCodeOrderUnprocessable  ErrorCode = 502
	ErrCodeOrderFailed         ErrorCode = 503
	ErrCodeBrokerParseFailed   ErrorCode = 504
	ErrCodeActivityFetchFailed ErrorCode = 505
	ErrCodePositionFetchFailed ErrorCode = 506
	ErrCodeAccountFetchFailed  ErrorCode = 507

	// Trading errors (600-699)
	ErrCodeBuyNotAllowed     ErrorCode = 600
	ErrCodePositionExists    ErrorCode = 601
	ErrCodeTradingDisabled   ErrorCode = 602
	ErrCodeNoSharesAvailable ErrorCode = 603

	// Channel errors (700-799)
	ErrCodeChannelClosed ErrorCode = 700
	ErrCodeNoResponse    ErrorCode = 701
)
