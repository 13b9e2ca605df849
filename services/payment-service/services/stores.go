package services

import (
	"errors"

	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/repository"
	"gorm.io/gorm"
)

// Stores bundles the repositories the payment services read and write.
type Stores struct {
	Payments      repository.PaymentRepository
	Organizations repository.OrganizationRepository
	Fundraisers   repository.FundraiserRepository
	Events        repository.EventRepository
	Dues          repository.DueRepository
	Tickets       repository.TicketRepository
}

// NewGormStores wires every repository to db.
func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Payments:      repository.NewGormPaymentRepo(db),
		Organizations: repository.NewGormOrganizationRepo(db),
		Fundraisers:   repository.NewGormFundraiserRepo(db),
		Events:        repository.NewGormEventRepo(db),
		Dues:          repository.NewGormDueRepo(db),
		Tickets:       repository.NewGormTicketRepo(db),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func ignoreNotFound(err error) error {
	if isNotFound(err) {
		return nil
	}
	return err
}
