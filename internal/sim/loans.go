// Policy operations invoked from the API and the mayor loop: loans, tax
// rate, and share trading. Each is an atomic read-modify-write under the
// city mutex, mirroring the action path.
package sim

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrLoanLimit       = errors.New("loan limit reached")
	ErrNoLoan          = errors.New("no outstanding loan")
	ErrInvalidTaxRate  = errors.New("tax rate must be between 0 and 0.5")
	ErrInsufficientETF = errors.New("not enough shares held")
	ErrCannotAfford    = errors.New("not enough money")
)

// maxLoanPrincipal caps total borrowing. Interest accrues daily at
// LoanRate/30 of the principal.
const maxLoanPrincipal = 10000

// TakeLoan borrows amount at the current loan rate.
func (c *City) TakeLoan(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Stats.LoanPrincipal+amount > maxLoanPrincipal {
		return fmt.Errorf("%w: principal would exceed %d", ErrLoanLimit, maxLoanPrincipal)
	}
	c.Stats.LoanPrincipal += amount
	c.Stats.Money += amount
	c.emit(Event{
		Tick:        c.Stats.Day,
		Description: fmt.Sprintf("Took a loan of %d (total principal %d)", amount, c.Stats.LoanPrincipal),
		Category:    "economy",
	})
	return nil
}

// RepayLoan pays down up to amount of the outstanding principal.
func (c *City) RepayLoan(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Stats.LoanPrincipal == 0 {
		return ErrNoLoan
	}
	if amount > c.Stats.LoanPrincipal {
		amount = c.Stats.LoanPrincipal
	}
	if amount > c.Stats.Money {
		return ErrCannotAfford
	}
	c.Stats.LoanPrincipal -= amount
	c.Stats.Money -= amount
	c.emit(Event{
		Tick:        c.Stats.Day,
		Description: fmt.Sprintf("Repaid %d of the loan (remaining %d)", amount, c.Stats.LoanPrincipal),
		Category:    "economy",
	})
	return nil
}

// SetTaxRate adjusts the per-capita tax rate. Rates above 50% are
// rejected outright rather than clamped so callers learn their ask was
// out of range.
func (c *City) SetTaxRate(rate float64) error {
	if rate < 0 || rate > 0.5 || math.IsNaN(rate) {
		return ErrInvalidTaxRate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stats.TaxRate = rate
	c.emit(Event{
		Tick:        c.Stats.Day,
		Description: fmt.Sprintf("Tax rate set to %.0f%%", rate*100),
		Category:    "economy",
	})
	return nil
}

// BuyShares purchases count shares of the city index fund at the current
// price, tracking the average cost basis.
func (c *City) BuyShares(count int) error {
	if count <= 0 {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cost := int(math.Ceil(c.Stats.SharePrice * float64(count)))
	if cost > c.Stats.Money {
		return ErrCannotAfford
	}
	held := c.Stats.Shares
	c.Stats.ShareAvgCost = (c.Stats.ShareAvgCost*float64(held) + c.Stats.SharePrice*float64(count)) / float64(held+count)
	c.Stats.Shares += count
	c.Stats.Money -= cost
	c.emit(Event{
		Tick:        c.Stats.Day,
		Description: fmt.Sprintf("Bought %d shares at %.2f", count, c.Stats.SharePrice),
		Category:    "economy",
	})
	return nil
}

// SellShares sells count held shares at the current price.
func (c *City) SellShares(count int) error {
	if count <= 0 {
		return ErrInvalidAmount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if count > c.Stats.Shares {
		return ErrInsufficientETF
	}
	proceeds := int(math.Floor(c.Stats.SharePrice * float64(count)))
	c.Stats.Shares -= count
	c.Stats.Money += proceeds
	if c.Stats.Shares == 0 {
		c.Stats.ShareAvgCost = 0
	}
	c.emit(Event{
		Tick:        c.Stats.Day,
		Description: fmt.Sprintf("Sold %d shares at %.2f for %d", count, c.Stats.SharePrice, proceeds),
		Category:    "economy",
	})
	return nil
}
