package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

const routerABI = `[
	{
		"constant": true,
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "path", "type": "address[]"}
		],
		"name": "getAmountsOut",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMin", "type": "uint256"},
			{"name": "path", "type": "address[]"},
			{"name": "to", "type": "address"},
			{"name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"type": "function"
	}
]`

// Errors
var (
	ErrMissingConfig     = errors.New("missing required configuration")
	ErrConnectNetwork    = errors.New("failed to connect to network")
	ErrInvalidPrivateKey = errors.New("failed to parse private key")
	ErrParseABI          = errors.New("failed to parse ABI")
	ErrCreateTransactor  = errors.New("failed to create transactor")
	ErrContractCall      = errors.New("failed to call contract function")
	ErrSendTransaction   = errors.New("failed to send transaction")
	ErrReceiptTimeout    = errors.New("timed out waiting for receipt")
	ErrNoRouter          = errors.New("no router contract configured")
)

// Config holds one network's client configuration. ReadRPCURL is the
// dedicated read-only provider; reads are never routed through the signer's
// endpoint so that embedded-wallet signers without call support still work.
type Config struct {
	Network       string
	RPCURL        string
	ReadRPCURL    string
	PrivateKey    string
	ChainID       *big.Int
	RouterAddress string
}

// Client encapsulates the signer-bound and read-only connections for one
// EVM network.
type Client struct {
	client     *ethclient.Client // transaction submission
	reader     *ethclient.Client // read-only calls
	wallet     common.Address
	privateKey *ecdsa.PrivateKey
	erc20      abi.ABI
	router     *bind.BoundContract
	routerAddr common.Address
	config     Config
}

func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.RPCURL == "" || config.PrivateKey == "" || config.ChainID == nil {
		return nil, fmt.Errorf("%w: RPC URL, private key or chain id", ErrMissingConfig)
	}

	client, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectNetwork, err)
	}

	readURL := config.ReadRPCURL
	if readURL == "" {
		readURL = config.RPCURL
	}
	reader, err := ethclient.DialContext(ctx, readURL)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: read provider: %v", ErrConnectNetwork, err)
	}

	key := strings.TrimPrefix(config.PrivateKey, "0x")
	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		client.Close()
		reader.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	wallet := crypto.PubkeyToAddress(privateKey.PublicKey)

	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: ERC20 ABI: %v", ErrParseABI, err)
	}

	c := &Client{
		client:     client,
		reader:     reader,
		wallet:     wallet,
		privateKey: privateKey,
		erc20:      erc20Parsed,
		config:     config,
	}

	if config.RouterAddress != "" {
		routerParsed, err := abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			return nil, fmt.Errorf("%w: router ABI: %v", ErrParseABI, err)
		}
		c.routerAddr = common.HexToAddress(config.RouterAddress)
		c.router = bind.NewBoundContract(c.routerAddr, routerParsed, reader, client, client)
	}

	return c, nil
}

func (c *Client) Close() {
	c.client.Close()
	c.reader.Close()
}

func (c *Client) Network() string               { return c.config.Network }
func (c *Client) ChainID() *big.Int             { return c.config.ChainID }
func (c *Client) WalletAddress() common.Address { return c.wallet }
func (c *Client) RouterAddress() common.Address { return c.routerAddr }

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.config.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateTransactor, err)
	}
	auth.Context = ctx
	return auth, nil
}

// Allowance issues a fresh allowance read through the read-only provider.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	contract := bind.NewBoundContract(token, c.erc20, c.reader, nil, nil)
	var result []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &result, "allowance", owner, spender); err != nil {
		return nil, fmt.Errorf("%w: allowance: %v", ErrContractCall, err)
	}
	return result[0].(*big.Int), nil
}

// BalanceOf reads an ERC-20 balance through the read-only provider.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	contract := bind.NewBoundContract(token, c.erc20, c.reader, nil, nil)
	var result []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &result, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("%w: balanceOf: %v", ErrContractCall, err)
	}
	return result[0].(*big.Int), nil
}

// ApproveExact sets the spender's allowance to exactly amount. The allowance
// is never raised to infinity so a compromised spender is bounded by the
// current request.
func (c *Client) ApproveExact(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error) {
	auth, err := c.transactor(ctx)
	if err != nil {
		return "", err
	}
	contract := bind.NewBoundContract(token, c.erc20, c.reader, c.client, c.client)
	tx, err := contract.Transact(auth, "approve", spender, amount)
	if err != nil {
		return "", fmt.Errorf("%w: approve: %v", ErrSendTransaction, err)
	}
	return tx.Hash().Hex(), nil
}

// AmountsOut quotes the AMM router for a path, returning the final hop's
// output amount.
func (c *Client) AmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	if c.router == nil {
		return nil, ErrNoRouter
	}
	var result []interface{}
	if err := c.router.Call(&bind.CallOpts{Context: ctx}, &result, "getAmountsOut", amountIn, path); err != nil {
		return nil, fmt.Errorf("%w: getAmountsOut: %v", ErrContractCall, err)
	}
	amounts := result[0].([]*big.Int)
	if len(amounts) == 0 {
		return nil, fmt.Errorf("%w: empty amounts from router", ErrContractCall)
	}
	return amounts[len(amounts)-1], nil
}

// SwapExactTokens executes a router swap of amountIn along path with the
// given output floor.
func (c *Client) SwapExactTokens(ctx context.Context, amountIn, amountOutMin *big.Int, path []common.Address, deadline *big.Int) (string, error) {
	if c.router == nil {
		return "", ErrNoRouter
	}
	auth, err := c.transactor(ctx)
	if err != nil {
		return "", err
	}
	tx, err := c.router.Transact(auth, "swapExactTokensForTokens", amountIn, amountOutMin, path, c.wallet, deadline)
	if err != nil {
		return "", fmt.Errorf("%w: swapExactTokensForTokens: %v", ErrSendTransaction, err)
	}
	return tx.Hash().Hex(), nil
}

// SendCalldata signs and submits a raw calldata transaction, used for
// aggregator-built routes where the provider supplies the full payload.
func (c *Client) SendCalldata(ctx context.Context, to common.Address, data []byte, value *big.Int) (string, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.wallet)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrSendTransaction, err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: gas price: %v", ErrSendTransaction, err)
	}
	if value == nil {
		value = big.NewInt(0)
	}
	gasLimit, err := c.client.EstimateGas(ctx, geth.CallMsg{
		From:  c.wallet,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("%w: estimate gas: %v", ErrSendTransaction, err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.config.ChainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: sign: %v", ErrSendTransaction, err)
	}
	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendTransaction, err)
	}
	return signedTx.Hash().Hex(), nil
}

// WaitMined polls the read provider for a receipt until the transaction has
// the requested confirmations or the timeout elapses.
func (c *Client) WaitMined(ctx context.Context, txHash string, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		receipt, err := c.reader.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if confirmations <= 1 {
				return receipt, nil
			}
			head, herr := c.reader.BlockNumber(ctx)
			if herr == nil && head >= receipt.BlockNumber.Uint64()+confirmations-1 {
				return receipt, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, txHash)
		case <-ticker.C:
		}
	}
}

// ToBaseUnits converts a human-readable amount to the token's native
// integer unit.
func ToBaseUnits(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}

// FromBaseUnits converts a native integer amount back to a human-readable
// decimal.
func FromBaseUnits(amount *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(int32(-decimals))
}
