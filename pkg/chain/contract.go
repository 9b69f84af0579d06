package chain

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultEndpoint        = "https://core.bloxberg.org/"
	DefaultContractAddress = "0x3fb704dfDB72Fc06860D9F09124C30919488f13C"
	DefaultDigestArgument  = "tokenHash"

	tokenURIArgument = "tokenURI"
)

//go:embed certificate.abi.json
var certificateABI []byte

// Contract binds the verifier to the certificate contract that recorded the digest.
type Contract struct {
	Address        common.Address
	ABI            abi.ABI
	DigestArgument string
}

// CallData is the decoded input of a contract call.
type CallData struct {
	Method   string
	Digest   string
	TokenURI string
}

// DefaultContract returns the bloxberg research object certificate contract.
func DefaultContract() (*Contract, error) {
	return NewContract(DefaultContractAddress, bytes.NewReader(certificateABI), DefaultDigestArgument)
}

// LoadContract is NewContract with the ABI read from abiFile.
// An empty abiFile uses the embedded certificate ABI.
func LoadContract(address, abiFile, digestArgument string) (*Contract, error) {
	if abiFile == "" {
		return NewContract(address, bytes.NewReader(certificateABI), digestArgument)
	}

	f, err := os.Open(abiFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewContract(address, f, digestArgument)
}

func NewContract(address string, abiJSON io.Reader, digestArgument string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := abi.JSON(abiJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}
	if digestArgument == "" {
		digestArgument = DefaultDigestArgument
	}
	return &Contract{
		Address:        common.HexToAddress(address),
		ABI:            parsed,
		DigestArgument: digestArgument,
	}, nil
}

// DecodeInput decodes transaction input against the contract ABI and extracts the
// submitted digest. Calls that do not belong to the ABI, or whose method carries no
// digest argument, fail with ErrDecode.
func (c *Contract) DecodeInput(input []byte) (*CallData, error) {
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: input too short for a method selector", ErrDecode)
	}

	method, err := c.ABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	args := map[string]any{}
	if err := method.Inputs.UnpackIntoMap(args, input[4:]); err != nil {
		return nil, fmt.Errorf("%w: unpacking %s arguments: %w", ErrDecode, method.Name, err)
	}

	digest, ok := args[c.DigestArgument].(string)
	if !ok {
		return nil, fmt.Errorf("%w: method %s has no string argument %q", ErrDecode, method.Name, c.DigestArgument)
	}
	uri, _ := args[tokenURIArgument].(string)

	return &CallData{
		Method:   method.Name,
		Digest:   digest,
		TokenURI: uri,
	}, nil
}
