// internal/services/catalog_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

type CatalogServiceTestSuite struct {
	suite.Suite
	db             *gorm.DB
	catalogService *CatalogService
	packageService *PackageService
	versionService *VersionService
}

func (suite *CatalogServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.versionService = NewVersionService(suite.db)
	suite.catalogService = NewCatalogService(suite.db, suite.versionService)
	suite.packageService = NewPackageService(suite.db, suite.versionService)
}

func (suite *CatalogServiceTestSuite) TestRetireHardware() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")

	retired, err := suite.catalogService.RetireHardware(hw.ID)
	suite.Require().NoError(err)
	suite.Equal(models.CatalogStatusRetired, retired.Status)
}

func (suite *CatalogServiceTestSuite) TestSupersedeRewritesLivePackages() {
	oldHW := createTestHardware(suite.T(), suite.db, "ThinkPad X1 Gen 9")
	newHW := createTestHardware(suite.T(), suite.db, "ThinkPad X1 Gen 11")
	otherHW := createTestHardware(suite.T(), suite.db, "Dell XPS 15")

	withOld, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Engineering Starter",
		HardwareIDs: []string{oldHW.ID.String(), otherHW.ID.String()},
	})
	suite.Require().NoError(err)
	withoutOld, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Sales Kit",
		HardwareIDs: []string{otherHW.ID.String()},
	})
	suite.Require().NoError(err)

	firstVersion, err := suite.versionService.GetOrCreateVersion(withOld.ID)
	suite.Require().NoError(err)

	updated, err := suite.catalogService.SupersedeHardware(oldHW.ID, &SupersedeHardwareRequest{
		SupersededByID: newHW.ID,
	})
	suite.Require().NoError(err)
	suite.Equal([]uuid.UUID{withOld.ID}, updated)

	// The live definition now carries the replacement.
	reloaded, err := suite.packageService.GetPackage(withOld.ID)
	suite.Require().NoError(err)
	suite.Contains([]string(reloaded.HardwareIDs), newHW.ID.String())
	suite.NotContains([]string(reloaded.HardwareIDs), oldHW.ID.String())

	// A fresh version was cut; the old snapshot is untouched.
	latest, err := suite.versionService.LatestVersion(withOld.ID)
	suite.Require().NoError(err)
	suite.Equal(2, latest.VersionNumber)

	oldSnapshot, err := suite.versionService.GetVersion(firstVersion.ID)
	suite.Require().NoError(err)
	suite.Contains([]string(oldSnapshot.HardwareIDs), oldHW.ID.String())

	// Packages not referencing the old item keep their content.
	untouched, err := suite.packageService.GetPackage(withoutOld.ID)
	suite.Require().NoError(err)
	suite.Equal([]string{otherHW.ID.String()}, []string(untouched.HardwareIDs))
}

func (suite *CatalogServiceTestSuite) TestSupersedeSetsPointer() {
	oldHW := createTestHardware(suite.T(), suite.db, "ThinkPad X1 Gen 9")
	newHW := createTestHardware(suite.T(), suite.db, "ThinkPad X1 Gen 11")

	_, err := suite.catalogService.SupersedeHardware(oldHW.ID, &SupersedeHardwareRequest{
		SupersededByID: newHW.ID,
	})
	suite.Require().NoError(err)

	reloaded, err := suite.catalogService.GetHardware(oldHW.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(reloaded.SupersededByID)
	suite.Equal(newHW.ID, *reloaded.SupersededByID)
}

func (suite *CatalogServiceTestSuite) TestSupersedeRejectsSelf() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")

	_, err := suite.catalogService.SupersedeHardware(hw.ID, &SupersedeHardwareRequest{
		SupersededByID: hw.ID,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindSupersedingCycle))
}

func (suite *CatalogServiceTestSuite) TestSupersedeRejectsCycle() {
	hwA := createTestHardware(suite.T(), suite.db, "Gen 9")
	hwB := createTestHardware(suite.T(), suite.db, "Gen 10")
	hwC := createTestHardware(suite.T(), suite.db, "Gen 11")

	_, err := suite.catalogService.SupersedeHardware(hwA.ID, &SupersedeHardwareRequest{SupersededByID: hwB.ID})
	suite.Require().NoError(err)
	_, err = suite.catalogService.SupersedeHardware(hwB.ID, &SupersedeHardwareRequest{SupersededByID: hwC.ID})
	suite.Require().NoError(err)

	// Closing the chain back onto its head is refused.
	_, err = suite.catalogService.SupersedeHardware(hwC.ID, &SupersedeHardwareRequest{SupersededByID: hwA.ID})
	suite.True(apperrors.IsKind(err, apperrors.KindSupersedingCycle))
}

func (suite *CatalogServiceTestSuite) TestResolveItems() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	sw := createTestSoftware(suite.T(), suite.db, "Slack", false)

	items, err := suite.catalogService.ResolveItems(
		[]string{hw.ID.String()},
		[]string{sw.ID.String()},
	)
	suite.Require().NoError(err)
	suite.Len(items, 2)

	kinds := map[models.ItemKind]int{}
	for _, item := range items {
		kinds[item.Kind]++
	}
	suite.Equal(1, kinds[models.ItemKindHardware])
	suite.Equal(1, kinds[models.ItemKindSoftware])
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}
