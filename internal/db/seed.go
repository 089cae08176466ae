package db

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailcadence/internal/core/domain"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsertProspect writes a prospect with its preferred address, customer,
// details and tags. IDs are assigned by the database and written back to p.
func InsertProspect(ctx context.Context, q Querier, p *domain.Prospect) error {
	if a := p.PreferredAddress; a != nil {
		err := q.QueryRow(ctx, `
            INSERT INTO addresses
                (line1, city, state, postal_code, postal_code_short, verified, active, vacant,
                 do_not_mail, global_do_not_mail, is_po_box, is_business)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
            RETURNING id`,
			a.Line1, a.City, a.State, a.PostalCode, a.PostalCodeShort, a.Verified, a.Active, a.Vacant,
			a.DoNotMail, a.GlobalDoNotMail, a.IsPOBox, a.IsBusiness,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
	}
	return insertProspectRow(ctx, q, p)
}

// InsertHouseholdMember writes a prospect sharing an already stored address.
func InsertHouseholdMember(ctx context.Context, q Querier, p *domain.Prospect) error {
	if p.PreferredAddress == nil || p.PreferredAddress.ID == 0 {
		return fmt.Errorf("household member needs a stored address")
	}
	return insertProspectRow(ctx, q, p)
}

func insertProspectRow(ctx context.Context, q Querier, p *domain.Prospect) error {
	var addressID *int64
	if p.PreferredAddress != nil {
		addressID = &p.PreferredAddress.ID
	}
	err := q.QueryRow(ctx, `
        INSERT INTO prospects
            (intacct_company_id, active, do_not_contact, do_not_mail, preferred_address_id, location_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`,
		p.IntacctCompanyID, p.Active, p.DoNotContact, p.DoNotMail, addressID, p.LocationID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert prospect: %w", err)
	}

	if c := p.Customer; c != nil {
		err = q.QueryRow(ctx, `
            INSERT INTO customers (prospect_id, lifetime_value, is_club_member, has_installation)
            VALUES ($1, $2, $3, $4)
            RETURNING id`,
			p.ID, c.LifetimeValue, c.IsClubMember, c.HasInstallation,
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
	}
	if d := p.Details; d != nil {
		_, err = q.Exec(ctx, `
            INSERT INTO prospect_details (prospect_id, age, home_age, estimated_income)
            VALUES ($1, $2, $3, $4)`,
			p.ID, d.Age, d.HomeAge, d.EstimatedIncome,
		)
		if err != nil {
			return fmt.Errorf("insert details: %w", err)
		}
	}
	for _, tag := range p.Tags {
		if _, err = q.Exec(ctx, `INSERT INTO prospect_tags (prospect_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`, p.ID, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
	}
	return nil
}

// InsertLocation writes a location and sets its ID.
func InsertLocation(ctx context.Context, q Querier, l *domain.Location) error {
	err := q.QueryRow(ctx, `INSERT INTO locations (intacct_company_id, name) VALUES ($1, $2) RETURNING id`,
		l.IntacctCompanyID, l.Name).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

var (
	seedStreets = []string{"Elm St", "Oak Ave", "Maple Dr", "Cedar Ln", "Pine Rd"}
	seedZips    = []string{"62701", "62702", "62703", "62704"}
	seedTags    = []string{"solar", "hvac", "roofing"}
)

// Seed inserts a demo audience for company DEMO: addresses shared by a few
// households, customers, demographic details and tags. It is skipped when
// prospects already exist.
func Seed(ctx context.Context, pool *pgxpool.Pool, households int) (err error) {
	var existing int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM prospects`).Scan(&existing); err != nil {
		return fmt.Errorf("count prospects: %w", err)
	}
	if existing > 0 {
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	r := rand.New(rand.NewSource(42))
	showroom := domain.Location{IntacctCompanyID: "DEMO", Name: "Springfield showroom"}
	if err = InsertLocation(ctx, tx, &showroom); err != nil {
		return err
	}

	for i := 0; i < households; i++ {
		zip := seedZips[r.Intn(len(seedZips))]
		line1 := fmt.Sprintf("%d %s", 100+i, seedStreets[r.Intn(len(seedStreets))])
		if r.Intn(15) == 0 {
			line1 = fmt.Sprintf("P.O. Box %d", 100+i)
		}
		head := domain.Prospect{
			IntacctCompanyID: "DEMO",
			Active:           r.Intn(20) > 0,
			DoNotMail:        r.Intn(50) == 0,
			Tags:             []string{seedTags[r.Intn(len(seedTags))]},
			PreferredAddress: &domain.Address{
				Line1:           line1,
				City:            "Springfield",
				State:           "IL",
				PostalCode:      zip + fmt.Sprintf("-%04d", r.Intn(10000)),
				PostalCodeShort: zip,
				Verified:        r.Intn(10) > 0,
				Active:          true,
				Vacant:          r.Intn(40) == 0,
				IsBusiness:      r.Intn(8) == 0,
			},
		}
		if r.Intn(3) == 0 {
			head.LocationID = &showroom.ID
		}
		if r.Intn(4) == 0 {
			head.Customer = &domain.Customer{
				LifetimeValue:   int64(r.Intn(2_000_000)),
				IsClubMember:    r.Intn(2) == 0,
				HasInstallation: r.Intn(2) == 0,
			}
		}
		if r.Intn(2) == 0 {
			age, homeAge := 25+r.Intn(55), r.Intn(80)
			income := int64(30_000_00 + r.Intn(200_000_00))
			head.Details = &domain.ProspectDetails{Age: &age, HomeAge: &homeAge, EstimatedIncome: &income}
		}
		if err = InsertProspect(ctx, tx, &head); err != nil {
			return err
		}

		if r.Intn(5) == 0 {
			member := domain.Prospect{
				IntacctCompanyID: "DEMO",
				Active:           true,
				PreferredAddress: head.PreferredAddress,
			}
			if err = InsertHouseholdMember(ctx, tx, &member); err != nil {
				return err
			}
		}
	}
	return nil
}
