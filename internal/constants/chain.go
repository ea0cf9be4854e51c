package constants

// Chain identifiers
const (
	BSCMainnetChainID uint64 = 56
	BSCTestnetChainID uint64 = 97
)

// Deployed contract addresses
const (
	TokenContractAddress      = "0x69d34B25809b346702C21EB0E22EAD8C1de58D66"
	PaymentContractAddress    = "0xe2d189f6696ee8b247ceae97fe3f1f2879054553"
	FeeRelayerContractAddress = "0x7ff2271749409f9137dac1e082962e21cc99aee6"
)

// EIP-1193 / EIP-3085 wallet methods
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodSendTransaction = "eth_sendTransaction"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
)

// EIP-1193 provider error codes
const (
	ErrCodeUserRejected  = 4001
	ErrCodeUnauthorized  = 4100
	ErrCodeUnknownChain  = 4902
	ErrCodeChainNotAdded = -32603
)
