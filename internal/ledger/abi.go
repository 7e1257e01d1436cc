package ledger

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/Veraticus/campus-bazaar/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// MarketplaceABI is the interface of the marketplace contract the client talks to.
const MarketplaceABI = `[
	{"type":"function","name":"listingCount","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getListing","stateMutability":"view",
	 "inputs":[{"name":"_id","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","internalType":"struct CampusMarketplace.Listing","components":[
		{"name":"id","type":"uint256"},
		{"name":"owner","type":"address"},
		{"name":"title","type":"string"},
		{"name":"description","type":"string"},
		{"name":"category","type":"string"},
		{"name":"location","type":"string"},
		{"name":"listingType","type":"uint8"},
		{"name":"priceWei","type":"uint256"},
		{"name":"isAvailable","type":"bool"},
		{"name":"createdAt","type":"uint256"}]}]},
	{"type":"function","name":"createListing","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"_title","type":"string"},
		{"name":"_description","type":"string"},
		{"name":"_category","type":"string"},
		{"name":"_location","type":"string"},
		{"name":"_listingType","type":"uint8"},
		{"name":"_priceWei","type":"uint256"}],
	 "outputs":[]},
	{"type":"function","name":"toggleAvailability","stateMutability":"nonpayable",
	 "inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"buyOrRent","stateMutability":"payable",
	 "inputs":[{"name":"_id","type":"uint256"}],"outputs":[]}
]`

var (
	parsedABI     abi.ABI
	parsedABIErr  error
	parsedABIOnce sync.Once
)

// ParsedABI returns the parsed marketplace ABI.
func ParsedABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(MarketplaceABI))
	})
	return parsedABI, parsedABIErr
}

// listingRecord mirrors the getListing tuple. Field names follow the ABI
// component names so abi.ConvertType can copy into it.
type listingRecord struct {
	Id          *big.Int // ConvertType matches fields by name
	Owner       ethcommon.Address
	Title       string
	Description string
	Category    string
	Location    string
	ListingType uint8
	PriceWei    *big.Int
	IsAvailable bool
	CreatedAt   *big.Int
}

func (r listingRecord) toModel() (model.Listing, error) {
	l := model.Listing{
		Owner:           r.Owner.Hex(),
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Location:        r.Location,
		Type:            model.ListingType(r.ListingType),
		PriceMinorUnits: new(big.Int),
		IsAvailable:     r.IsAvailable,
	}
	if r.Id != nil {
		if !r.Id.IsUint64() {
			return model.Listing{}, fmt.Errorf("listing id %s out of range", r.Id)
		}
		l.ID = r.Id.Uint64()
	}
	if r.PriceWei != nil {
		l.PriceMinorUnits.Set(r.PriceWei)
	}
	if r.CreatedAt != nil {
		if !r.CreatedAt.IsInt64() {
			return model.Listing{}, fmt.Errorf("listing %d createdAt %s out of range", l.ID, r.CreatedAt)
		}
		l.CreatedAt = r.CreatedAt.Int64()
	}
	return l, nil
}
