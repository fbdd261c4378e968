package merchantrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/merchantrepo"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MerchantDirectoryIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	directory *merchantrepo.GormMerchantDirectory
}

func (suite *MerchantDirectoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&merchantrepo.MerchantDTO{}))
}

func (suite *MerchantDirectoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE merchants").Error)
	suite.directory = merchantrepo.NewGormMerchantDirectory(suite.db)
}

func (suite *MerchantDirectoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *MerchantDirectoryIntegrationTestSuite) TestLookup_ExistingMerchant_ReturnsProfile() {
	ctx := context.Background()

	dto := merchantrepo.MerchantDTO{
		ID:      "store-1",
		Name:    "Mario's Pizzeria",
		Address: "100 Main Street, Springfield, IL, 62701",
		Phone:   "2175550100",
	}
	suite.Require().NoError(suite.db.Create(&dto).Error)

	m, err := suite.directory.Lookup(ctx, "store-1")
	suite.Require().NoError(err)
	suite.Equal("store-1", m.ID)
	suite.Equal("Mario's Pizzeria", m.Name)
	suite.Equal("100 Main Street, Springfield, IL, 62701", m.Address)
	suite.Equal("2175550100", m.Phone)
	suite.True(m.HasAddress())
}

func (suite *MerchantDirectoryIntegrationTestSuite) TestLookup_NonExistentMerchant_ReturnsNotFoundError() {
	m, err := suite.directory.Lookup(context.Background(), "missing")

	suite.Nil(m)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func TestMerchantDirectoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(MerchantDirectoryIntegrationTestSuite))
}
