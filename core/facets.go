package core

// FacetRole 是 diamond 上 facet 的角色
type FacetRole uint8

const (
	FacetAdmin FacetRole = iota
	FacetBorrow
	FacetCollateral
	FacetDiamondCut
	FacetDiamondLoupe
	FacetFlashloan
	FacetLend
	FacetLiquidation
	FacetNonCollatBorrow
	FacetOwnership
	FacetView
)

// String returns the config key of the role.
func (r FacetRole) String() string {
	switch r {
	case FacetAdmin:
		return "adminFacet"
	case FacetBorrow:
		return "borrowFacet"
	case FacetCollateral:
		return "collateralFacet"
	case FacetDiamondCut:
		return "diamondCutFacet"
	case FacetDiamondLoupe:
		return "diamondLoupeFacet"
	case FacetFlashloan:
		return "flashloanFacet"
	case FacetLend:
		return "lendFacet"
	case FacetLiquidation:
		return "liquidationFacet"
	case FacetNonCollatBorrow:
		return "nonCollatBorrowFacet"
	case FacetOwnership:
		return "ownershipFacet"
	case FacetView:
		return "viewFacet"
	}
	return "unknownFacet"
}

// FacetRoles returns the eleven roles in key order.
func FacetRoles() []FacetRole {
	return []FacetRole{
		FacetAdmin, FacetBorrow, FacetCollateral, FacetDiamondCut, FacetDiamondLoupe, FacetFlashloan,
		FacetLend, FacetLiquidation, FacetNonCollatBorrow, FacetOwnership, FacetView,
	}
}

// Facets holds exactly one address per facet role. The decoders reject
// unknown keys, so the key set cannot grow through a config file.
type Facets struct {
	AdminFacet           string `yaml:"adminFacet" json:"adminFacet" validate:"required,address"`
	BorrowFacet          string `yaml:"borrowFacet" json:"borrowFacet" validate:"required,address"`
	CollateralFacet      string `yaml:"collateralFacet" json:"collateralFacet" validate:"required,address"`
	DiamondCutFacet      string `yaml:"diamondCutFacet" json:"diamondCutFacet" validate:"required,address"`
	DiamondLoupeFacet    string `yaml:"diamondLoupeFacet" json:"diamondLoupeFacet" validate:"required,address"`
	FlashloanFacet       string `yaml:"flashloanFacet" json:"flashloanFacet" validate:"required,address"`
	LendFacet            string `yaml:"lendFacet" json:"lendFacet" validate:"required,address"`
	LiquidationFacet     string `yaml:"liquidationFacet" json:"liquidationFacet" validate:"required,address"`
	NonCollatBorrowFacet string `yaml:"nonCollatBorrowFacet" json:"nonCollatBorrowFacet" validate:"required,address"`
	OwnershipFacet       string `yaml:"ownershipFacet" json:"ownershipFacet" validate:"required,address"`
	ViewFacet            string `yaml:"viewFacet" json:"viewFacet" validate:"required,address"`
}

// Address 返回某个角色的 facet 地址
func (f Facets) Address(role FacetRole) (string, error) {
	switch role {
	case FacetAdmin:
		return f.AdminFacet, nil
	case FacetBorrow:
		return f.BorrowFacet, nil
	case FacetCollateral:
		return f.CollateralFacet, nil
	case FacetDiamondCut:
		return f.DiamondCutFacet, nil
	case FacetDiamondLoupe:
		return f.DiamondLoupeFacet, nil
	case FacetFlashloan:
		return f.FlashloanFacet, nil
	case FacetLend:
		return f.LendFacet, nil
	case FacetLiquidation:
		return f.LiquidationFacet, nil
	case FacetNonCollatBorrow:
		return f.NonCollatBorrowFacet, nil
	case FacetOwnership:
		return f.OwnershipFacet, nil
	case FacetView:
		return f.ViewFacet, nil
	}
	return "", ErrUnknownFacetRole
}

// FacetAddress pairs a role with its configured address.
type FacetAddress struct {
	Role    FacetRole
	Address string
}

// All lists the facets in role order.
func (f Facets) All() []FacetAddress {
	roles := FacetRoles()
	res := make([]FacetAddress, 0, len(roles))
	for _, r := range roles {
		addr, _ := f.Address(r)
		res = append(res, FacetAddress{Role: r, Address: addr})
	}
	return res
}
