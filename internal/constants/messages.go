package constants

// Real-time message types
const (
	MessageAuth                 = "auth"
	MessageTransactionCompleted = "transaction_completed"
	MessageTransactionFailed    = "transaction_failed"
	MessageLoanApproved         = "loan_approved"
	MessageLoanRejected         = "loan_rejected"
	MessageCollateralLocked     = "collateral_locked"
	MessagePriceUpdate          = "price_update"
)

// Notification titles
const (
	TitleWalletNotFound       = "Wallet Not Found"
	TitleConnectionError      = "Connection Error"
	TitleWalletConnected      = "Wallet Connected"
	TitleWalletDisconnected   = "Wallet Disconnected"
	TitleWrongNetwork         = "Wrong Network"
	TitleNetworkError         = "Network Error"
	TitleTransactionSucceeded = "Transaction Successful"
	TitleTransactionFailed    = "Transaction Failed"
	TitleInsufficientBalance  = "Insufficient Balance"
	TitleNotConnected         = "Not Connected"
	TitlePaymentReceived      = "Payment Completed"
	TitlePaymentFailed        = "Payment Failed"
	TitleLoanApproved         = "Loan Approved"
	TitleLoanRejected         = "Loan Rejected"
	TitleCollateralLocked     = "Collateral Locked"
	TitleSessionExpired       = "Session Expired"
)

// RealtimePath is the push socket path on the API host.
const RealtimePath = "/ws"
