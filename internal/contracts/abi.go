package contracts

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abis/*.json
var abiFiles embed.FS

// ABIs holds the parsed interfaces of the three deployed contracts.
type ABIs struct {
	Token      abi.ABI
	Payment    abi.ABI
	FeeRelayer abi.ABI
}

// LoadABIs parses the embedded contract ABIs.
func LoadABIs() (*ABIs, error) {
	token, err := loadABI("abis/token.json")
	if err != nil {
		return nil, err
	}
	payment, err := loadABI("abis/payment.json")
	if err != nil {
		return nil, err
	}
	relayer, err := loadABI("abis/fee_relayer.json")
	if err != nil {
		return nil, err
	}
	return &ABIs{Token: token, Payment: payment, FeeRelayer: relayer}, nil
}

// MustLoadABIs is LoadABIs for package initialisation and tests.
func MustLoadABIs() *ABIs {
	abis, err := LoadABIs()
	if err != nil {
		panic(err)
	}
	return abis
}

func loadABI(name string) (abi.ABI, error) {
	raw, err := abiFiles.ReadFile(name)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return parsed, nil
}
