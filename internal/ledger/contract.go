// Package ledger adapts the marketplace contract to service.Ledger and
// formats minor-unit amounts for display.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Veraticus/campus-bazaar/internal/common"
	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/Veraticus/campus-bazaar/internal/service"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the chain connection the contract is reached through.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Signer produces transaction options that sign as account.
type Signer interface {
	Transactor(ctx context.Context, account string, chainID *big.Int) (*bind.TransactOpts, error)
}

// Client binds the marketplace contract at a fixed address.
type Client struct {
	backend Backend
	signer  Signer
	abi     abi.ABI
	address ethcommon.Address
}

// NewClient validates the contract address and parses the ABI.
func NewClient(backend Backend, address string, signer Signer) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: ledger backend", common.ErrMissingConfig)
	}
	if !ethcommon.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: contract address %q", common.ErrInvalidConfig, address)
	}
	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}
	return &Client{
		backend: backend,
		signer:  signer,
		abi:     parsed,
		address: ethcommon.HexToAddress(address),
	}, nil
}

// Bind implements service.LedgerBinder. The chain id is read from the backend
// on every call so a handle never signs for a network it was not built on.
func (c *Client) Bind(ctx context.Context, account string) (service.Ledger, error) {
	bound := bind.NewBoundContract(c.address, c.abi, c.backend, c.backend, c.backend)
	contract := &Contract{bound: bound, backend: c.backend}

	if account == "" {
		return contract, nil
	}
	if !ethcommon.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: invalid account %q", common.ErrWalletUnavailable, account)
	}
	if c.signer == nil {
		return nil, fmt.Errorf("%w: no signer configured", common.ErrWalletUnavailable)
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	opts, err := c.signer.Transactor(ctx, account, chainID)
	if err != nil {
		return nil, err
	}
	contract.from = ethcommon.HexToAddress(account)
	contract.opts = opts
	return contract, nil
}

// Contract is a ledger handle; mutations are only possible when it was bound
// to an account.
type Contract struct {
	bound   *bind.BoundContract
	backend Backend
	opts    *bind.TransactOpts
	from    ethcommon.Address
}

func (c *Contract) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: c.from}
}

// ListingCount returns the number of listing slots.
func (c *Contract) ListingCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.bound.Call(c.callOpts(ctx), &out, "listingCount"); err != nil {
		return 0, wrapLedgerError("listingCount", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("listingCount returned no values")
	}

	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if count == nil || !count.IsUint64() {
		return 0, fmt.Errorf("listingCount %v out of range", count)
	}
	return count.Uint64(), nil
}

// GetListing reads the listing stored at slot id.
func (c *Contract) GetListing(ctx context.Context, id uint64) (model.Listing, error) {
	var out []interface{}
	if err := c.bound.Call(c.callOpts(ctx), &out, "getListing", new(big.Int).SetUint64(id)); err != nil {
		return model.Listing{}, wrapLedgerError("getListing", err)
	}
	if len(out) == 0 {
		return model.Listing{}, fmt.Errorf("getListing(%d) returned no values", id)
	}

	record := *abi.ConvertType(out[0], new(listingRecord)).(*listingRecord)
	return record.toModel()
}

// CreateListing submits a new listing owned by the bound account.
func (c *Contract) CreateListing(ctx context.Context, l model.NewListing) (service.TxHandle, error) {
	if l.PriceMinorUnits == nil {
		return nil, common.NewValidationError("price", "missing")
	}
	return c.transact(ctx, nil, "createListing",
		l.Title, l.Description, l.Category, l.Location, uint8(l.Type), l.PriceMinorUnits)
}

// ToggleAvailability flips the availability of a listing owned by the bound account.
func (c *Contract) ToggleAvailability(ctx context.Context, id uint64) (service.TxHandle, error) {
	return c.transact(ctx, nil, "toggleAvailability", new(big.Int).SetUint64(id))
}

// BuyOrRent pays value for listing id.
func (c *Contract) BuyOrRent(ctx context.Context, id uint64, value *big.Int) (service.TxHandle, error) {
	return c.transact(ctx, value, "buyOrRent", new(big.Int).SetUint64(id))
}

func (c *Contract) transact(ctx context.Context, value *big.Int, method string, params ...interface{}) (service.TxHandle, error) {
	if c.opts == nil {
		return nil, fmt.Errorf("%w: %s needs a connected account", common.ErrWalletUnavailable, method)
	}

	opts := *c.opts
	opts.Context = ctx
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}

	tx, err := c.bound.Transact(&opts, method, params...)
	if err != nil {
		return nil, wrapLedgerError(method, err)
	}
	return &pendingTx{tx: tx, backend: c.backend}, nil
}

// pendingTx waits for a submitted transaction to be mined.
type pendingTx struct {
	tx      *types.Transaction
	backend Backend
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return wrapLedgerError("wait", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return &common.LedgerError{Err: fmt.Errorf("transaction %s reverted in block %v", p.Hash(), receipt.BlockNumber)}
	}
	return nil
}

// wrapLedgerError keeps err in the chain and extracts the message the node
// reported, decoding Error(string) revert data when present.
func wrapLedgerError(method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", method, err)
	}
	return &common.LedgerError{Message: RevertMessage(err), Err: fmt.Errorf("%s: %w", method, err)}
}

// RevertMessage returns the most specific human-readable message carried by err.
func RevertMessage(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok && strings.HasPrefix(data, "0x") {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil && reason != "" {
					return reason
				}
			}
		}
	}

	return err.Error()
}
