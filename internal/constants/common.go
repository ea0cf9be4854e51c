package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"
	DevEnvironment  = "dev"
	TestEnvironment = "test"

	// Service name attached to structured logs
	ServiceName = "nepalipay-walletd"
)

// Token parameters
const (
	TokenDecimals = 18
	TokenSymbol   = "NPT"
	FiatCurrency  = "USD"
)

// Native currency scaling
const (
	NativeDecimals = 18
	GweiDecimals   = 9
)

// Wallet install link shown when no injected wallet is available
const WalletInstallURL = "https://metamask.io/download/"
