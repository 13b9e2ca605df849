package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationRepository reads clubs and their members.
type OrganizationRepository interface {
	FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListMembersByRole(ctx context.Context, orgID uuid.UUID, role string) ([]models.Member, error)
	SetPayoutAccount(ctx context.Context, orgID uuid.UUID, accountID string) error
	// SetPayoutsEnabled updates the organization owning accountID and
	// returns its id, or uuid.Nil when no organization owns the account.
	SetPayoutsEnabled(ctx context.Context, accountID string, enabled bool) (uuid.UUID, error)
}

type FundraiserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Fundraiser, error)
	// RecomputeTotal sets amount_raised to the sum of completed donations.
	RecomputeTotal(ctx context.Context, id uuid.UUID) error
}

type EventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

type DueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Due, error)
	// MarkPaid flips an unpaid due to paid. It reports false when the due
	// was already paid or does not exist.
	MarkPaid(ctx context.Context, id, paidBy uuid.UUID, at time.Time) (bool, error)
	InsertIfAbsent(ctx context.Context, due *models.Due) (bool, error)
}

type TicketRepository interface {
	CreateIfAbsent(ctx context.Context, ticket *models.Ticket) (bool, error)
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Ticket, error)
}

type gormOrganizationRepo struct{ db *gorm.DB }

func NewGormOrganizationRepo(db *gorm.DB) OrganizationRepository {
	return &gormOrganizationRepo{db: db}
}

func (r *gormOrganizationRepo) FindOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *gormOrganizationRepo) FindMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var m models.Member
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormOrganizationRepo) ListMembersByRole(ctx context.Context, orgID uuid.UUID, role string) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND role = ?", orgID, role).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *gormOrganizationRepo) SetPayoutAccount(ctx context.Context, orgID uuid.UUID, accountID string) error {
	res := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", orgID).
		Update("payout_account_id", accountID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormOrganizationRepo) SetPayoutsEnabled(ctx context.Context, accountID string, enabled bool) (uuid.UUID, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("payout_account_id = ?", accountID).First(&org).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	if org.PayoutsEnabled == enabled {
		return org.ID, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", org.ID).
		Update("payouts_enabled", enabled).Error
	return org.ID, err
}

type gormFundraiserRepo struct{ db *gorm.DB }

func NewGormFundraiserRepo(db *gorm.DB) FundraiserRepository {
	return &gormFundraiserRepo{db: db}
}

func (r *gormFundraiserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Fundraiser, error) {
	var f models.Fundraiser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

const recomputeFundraiserTotalSQL = `UPDATE fundraisers SET amount_raised = (
	SELECT COALESCE(SUM(amount), 0) FROM payments
	WHERE fundraiser_id = ? AND kind = ? AND status = ?
), updated_at = ? WHERE id = ?`

func (r *gormFundraiserRepo) RecomputeTotal(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(recomputeFundraiserTotalSQL,
		id, models.PaymentKindDonation, models.PaymentStatusCompleted, time.Now().UTC(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type gormEventRepo struct{ db *gorm.DB }

func NewGormEventRepo(db *gorm.DB) EventRepository {
	return &gormEventRepo{db: db}
}

func (r *gormEventRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

type gormDueRepo struct{ db *gorm.DB }

func NewGormDueRepo(db *gorm.DB) DueRepository {
	return &gormDueRepo{db: db}
}

func (r *gormDueRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Due, error) {
	var d models.Due
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *gormDueRepo) MarkPaid(ctx context.Context, id, paidBy uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Due{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{
			"paid":    true,
			"paid_by": paidBy,
			"paid_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormDueRepo) InsertIfAbsent(ctx context.Context, due *models.Due) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}, {Name: "period"}},
			DoNothing: true,
		}).
		Create(due)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type gormTicketRepo struct{ db *gorm.DB }

func NewGormTicketRepo(db *gorm.DB) TicketRepository {
	return &gormTicketRepo{db: db}
}

func (r *gormTicketRepo) CreateIfAbsent(ctx context.Context, ticket *models.Ticket) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "payment_id"}}, DoNothing: true}).
		Create(ticket)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormTicketRepo) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
