package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"reportbot/internal/models"
	"reportbot/internal/repository"
)

var (
	leadStatuses = []string{"new", "contacted", "qualified", "converted", "lost"}
	leadSources  = []string{"website", "referral", "cold_call", "social_media", "event"}
	projectStats = []string{"active", "planning", "completed", "on_hold"}
)

// Generator produces synthetic leads with their supporting project and
// address records, for demos and local development.
type Generator struct {
	records *repository.RecordRepository
	logger  *zap.Logger
}

func NewGenerator(records *repository.RecordRepository, logger *zap.Logger) *Generator {
	return &Generator{records: records, logger: logger}
}

// Generate inserts count lead bundles and returns how many were created.
// Each bundle is one address, one project and one lead linked to both.
func (g *Generator) Generate(count int) (int, error) {
	created := 0
	for i := 0; i < count; i++ {
		address := g.fakeAddress()
		project := g.fakeProject()
		lead := g.fakeLead()

		if err := g.records.CreateBatch(address, project, lead); err != nil {
			return created, fmt.Errorf("inserting lead bundle failed: %w", err)
		}
		created++
	}

	g.logger.Info("Generated synthetic records", zap.Int("count", created))
	return created, nil
}

func (g *Generator) fakeAddress() *models.Address {
	addr := gofakeit.Address()
	return &models.Address{
		Street:     addr.Street,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.Zip,
		Country:    addr.Country,
	}
}

func (g *Generator) fakeProject() *models.Project {
	start := gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
	end := start.AddDate(0, gofakeit.Number(3, 18), 0)
	return &models.Project{
		Name:        gofakeit.Company() + " " + gofakeit.BuzzWord(),
		Description: gofakeit.Sentence(10),
		Status:      gofakeit.RandomString(projectStats),
		Location:    gofakeit.City(),
		Budget:      int64(gofakeit.Number(50_000, 5_000_000)),
		StartDate:   &start,
		EndDate:     &end,
	}
}

func (g *Generator) fakeLead() *models.Lead {
	return &models.Lead{
		Name:   gofakeit.Name(),
		Email:  gofakeit.Email(),
		Phone:  gofakeit.Phone(),
		Status: gofakeit.RandomString(leadStatuses),
		Source: gofakeit.RandomString(leadSources),
	}
}
