package core

// Config 是一个网络上已部署合约的完整地址簿
type Config struct {
	MoneyMarket MoneyMarket `yaml:"moneyMarket" json:"moneyMarket" validate:"required"`
	MiniFL      MiniFL      `yaml:"miniFL" json:"miniFL"`
	Rewarders   []Rewarder  `yaml:"rewarders" json:"rewarders" validate:"dive"`
	ProxyAdmin  string      `yaml:"proxyAdmin" json:"proxyAdmin" validate:"required,address"`
	Timelock    string      `yaml:"timelock" json:"timelock" validate:"required,address"`
	OpMultiSig  string      `yaml:"opMultiSig" json:"opMultiSig" validate:"required,address"`
}

type UpgradableContract struct {
	Implementation string `yaml:"implementation" json:"implementation" validate:"required,address"`
	Proxy          string `yaml:"proxy" json:"proxy" validate:"required,address"`
}

// AccountManager has the same layout as UpgradableContract, the name only marks its role.
type AccountManager struct {
	UpgradableContract `yaml:",inline"`
}

type MoneyMarket struct {
	MoneyMarketDiamond string         `yaml:"moneyMarketDiamond" json:"moneyMarketDiamond" validate:"required,address"`
	Facets             Facets         `yaml:"facets" json:"facets" validate:"required"`
	Markets            []Market       `yaml:"markets" json:"markets" validate:"dive"`
	AccountManager     AccountManager `yaml:"accountManager" json:"accountManager" validate:"required"`
}

// Market 单个借贷市场
type Market struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	// Tier is a free-form label, see AssetTier for the numeric on-chain code.
	Tier          string `yaml:"tier" json:"tier" validate:"required"`
	Token         string `yaml:"token" json:"token" validate:"required,address"`
	IBToken       string `yaml:"ibToken" json:"ibToken" validate:"required,address"`
	DebtToken     string `yaml:"debtToken" json:"debtToken" validate:"required,address"`
	InterestModel string `yaml:"interestModel" json:"interestModel" validate:"required,address"`
}

// AssetTier parses the market's tier label. Labels outside the canonical set
// are allowed in the address book, so callers decide what an error means.
func (m Market) AssetTier() (AssetTier, error) {
	return ParseAssetTier(m.Tier)
}

type MiniFL struct {
	Pools []MiniFLPool `yaml:"pools" json:"pools" validate:"dive"`
}

type MiniFLPool struct {
	ID           int        `yaml:"id" json:"id" validate:"gte=0"`
	Name         string     `yaml:"name" json:"name" validate:"required"`
	StakingToken string     `yaml:"stakingToken" json:"stakingToken" validate:"required,address"`
	Rewarders    []Rewarder `yaml:"rewarders" json:"rewarders" validate:"dive"`
}

type Rewarder struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Address     string `yaml:"address" json:"address" validate:"required,address"`
	RewardToken string `yaml:"rewardToken" json:"rewardToken" validate:"required,address"`
}

// Pool 按 id 查找 pool
func (m MiniFL) Pool(id int) (MiniFLPool, bool) {
	for _, p := range m.Pools {
		if p.ID == id {
			return p, true
		}
	}
	return MiniFLPool{}, false
}

// Market 按名称查找市场
func (m MoneyMarket) Market(name string) (Market, bool) {
	for _, mk := range m.Markets {
		if mk.Name == name {
			return mk, true
		}
	}
	return Market{}, false
}

// NamedAddress is one entry of Config.Addresses.
type NamedAddress struct {
	Name    string
	Address string
}

// Addresses flattens every contract address in the book, in a stable order.
// Token addresses are included since tooling checks them the same way.
func (c Config) Addresses() []NamedAddress {
	res := []NamedAddress{
		{"proxyAdmin", c.ProxyAdmin},
		{"timelock", c.Timelock},
		{"opMultiSig", c.OpMultiSig},
		{"moneyMarket.moneyMarketDiamond", c.MoneyMarket.MoneyMarketDiamond},
	}
	for _, f := range c.MoneyMarket.Facets.All() {
		res = append(res, NamedAddress{"moneyMarket.facets." + f.Role.String(), f.Address})
	}
	am := c.MoneyMarket.AccountManager
	res = append(res,
		NamedAddress{"moneyMarket.accountManager.implementation", am.Implementation},
		NamedAddress{"moneyMarket.accountManager.proxy", am.Proxy},
	)
	for _, m := range c.MoneyMarket.Markets {
		prefix := "moneyMarket.markets." + m.Name
		res = append(res,
			NamedAddress{prefix + ".token", m.Token},
			NamedAddress{prefix + ".ibToken", m.IBToken},
			NamedAddress{prefix + ".debtToken", m.DebtToken},
			NamedAddress{prefix + ".interestModel", m.InterestModel},
		)
	}
	for _, p := range c.MiniFL.Pools {
		prefix := "miniFL.pools." + p.Name
		res = append(res, NamedAddress{prefix + ".stakingToken", p.StakingToken})
		for _, r := range p.Rewarders {
			res = append(res, NamedAddress{prefix + ".rewarders." + r.Name, r.Address})
		}
	}
	for _, r := range c.Rewarders {
		res = append(res, NamedAddress{"rewarders." + r.Name, r.Address})
	}
	return res
}
