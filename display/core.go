package display

import (
	"fmt"
	"io"
	"strconv"

	"lending-deploy/chain"
	"lending-deploy/core"
)

// Config 打印地址簿概要
func Config(w io.Writer, c core.Config) {
	Section(w, "governance")
	Fields(w,
		[2]string{"proxyAdmin", c.ProxyAdmin},
		[2]string{"timelock", c.Timelock},
		[2]string{"opMultiSig", c.OpMultiSig},
	)

	Section(w, "money market")
	mm := c.MoneyMarket
	pairs := [][2]string{
		{"moneyMarketDiamond", mm.MoneyMarketDiamond},
		{"accountManager.proxy", mm.AccountManager.Proxy},
		{"accountManager.implementation", mm.AccountManager.Implementation},
	}
	for _, f := range mm.Facets.All() {
		pairs = append(pairs, [2]string{f.Role.String(), f.Address})
	}
	Fields(w, pairs...)

	for _, m := range mm.Markets {
		Section(w, "market "+m.Name)
		Fields(w,
			[2]string{"tier", m.Tier},
			[2]string{"token", m.Token},
			[2]string{"ibToken", m.IBToken},
			[2]string{"debtToken", m.DebtToken},
			[2]string{"interestModel", m.InterestModel},
		)
	}

	for _, p := range c.MiniFL.Pools {
		Section(w, fmt.Sprintf("miniFL pool %d %s", p.ID, p.Name))
		names := make([]string, 0, len(p.Rewarders))
		for _, r := range p.Rewarders {
			names = append(names, r.Name+" "+r.Address)
		}
		Fields(w,
			[2]string{"stakingToken", p.StakingToken},
			[2]string{"rewarders", joinOrDash(names)},
		)
	}

	if len(c.Rewarders) > 0 {
		Section(w, "rewarders")
		pairs := make([][2]string, 0, len(c.Rewarders))
		for _, r := range c.Rewarders {
			pairs = append(pairs, [2]string{r.Name, r.Address + " (reward " + r.RewardToken + ")"})
		}
		Fields(w, pairs...)
	}
}

func Tiers(w io.Writer) {
	Section(w, "asset tiers")
	pairs := make([][2]string, 0, 4)
	for _, t := range core.AssetTiers() {
		pairs = append(pairs, [2]string{strconv.Itoa(int(t)), t.String()})
	}
	Fields(w, pairs...)
}

// Transaction 打印一条 timelock 交易记录
func Transaction(w io.Writer, tx core.TimelockTransaction) {
	hash := "-"
	if h, err := tx.TxHash(); err == nil {
		hash = h.Hex()
	}
	params := make([]string, len(tx.Params))
	for i, p := range tx.Params {
		typ := "?"
		if i < len(tx.ParamTypes) {
			typ = tx.ParamTypes[i]
		}
		params[i] = typ + " " + p.String()
	}
	value := tx.Value
	if amount, err := tx.Amount(); err == nil && amount.Sign() > 0 {
		value += " (" + core.FormatUnits(amount, core.NativeDecimals) + " native)"
	}
	status := "queued"
	if tx.IsExecuted() {
		status = "executed in " + tx.ExecutionTransaction
	}

	Section(w, "timelock transaction")
	Fields(w,
		[2]string{"info", tx.Info},
		[2]string{"txHash", hash},
		[2]string{"status", status},
		[2]string{"chainId", strconv.FormatInt(tx.ChainID, 10)},
		[2]string{"target", tx.Target},
		[2]string{"value", value},
		[2]string{"signature", tx.Signature},
		[2]string{"params", joinOrDash(params)},
		[2]string{"eta", tx.ETA},
	)
}

func Report(w io.Writer, r chain.Report) {
	Section(w, "verification")
	for _, na := range r.Malformed {
		Warn(w, "malformed address %s: %s", na.Name, na.Address)
	}
	for _, na := range r.Missing {
		Failure(w, "no contract code at %s: %s", na.Name, na.Address)
	}
	if r.OK() {
		Success(w, "all %d addresses have contract code", r.Checked)
	}
}
