// internal/services/version_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

type VersionServiceTestSuite struct {
	suite.Suite
	db             *gorm.DB
	versionService *VersionService
	packageService *PackageService
}

func (suite *VersionServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.versionService = NewVersionService(suite.db)
	suite.packageService = NewPackageService(suite.db, suite.versionService)
}

func (suite *VersionServiceTestSuite) createPackage(hardwareIDs, softwareIDs []string) *models.EquipmentPackage {
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Engineering Starter",
		HardwareIDs: hardwareIDs,
		SoftwareIDs: softwareIDs,
	})
	suite.Require().NoError(err)
	return pkg
}

func (suite *VersionServiceTestSuite) TestFirstSaveCreatesVersionOne() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg := suite.createPackage([]string{hw.ID.String()}, nil)

	version, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)
	suite.Equal(1, version.VersionNumber)
	suite.Equal([]string{hw.ID.String()}, []string(version.HardwareIDs))
	suite.NotEmpty(version.ContentDigest)
}

func (suite *VersionServiceTestSuite) TestUnchangedSaveReusesLatestVersion() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg := suite.createPackage([]string{hw.ID.String()}, nil)

	first, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)

	second, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.Equal(1, second.VersionNumber)

	versions, err := suite.versionService.ListVersions(pkg.ID)
	suite.Require().NoError(err)
	suite.Len(versions, 1)
}

func (suite *VersionServiceTestSuite) TestContentChangeIncrementsContiguously() {
	hwA := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	hwB := createTestHardware(suite.T(), suite.db, "Dell XPS 15")
	hwC := createTestHardware(suite.T(), suite.db, "MacBook Pro 14")
	pkg := suite.createPackage([]string{hwA.ID.String()}, nil)

	_, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)

	for i, hw := range []*models.HardwareItem{hwB, hwC} {
		ids := []string{hw.ID.String()}
		_, err := suite.packageService.UpdatePackage(pkg.ID, &UpdatePackageRequest{HardwareIDs: &ids})
		suite.Require().NoError(err)

		version, err := suite.versionService.GetOrCreateVersion(pkg.ID)
		suite.Require().NoError(err)
		suite.Equal(i+2, version.VersionNumber)
	}

	versions, err := suite.versionService.ListVersions(pkg.ID)
	suite.Require().NoError(err)
	suite.Len(versions, 3)
	for i, v := range versions {
		suite.Equal(i+1, v.VersionNumber)
	}
}

func (suite *VersionServiceTestSuite) TestDigestIgnoresListOrder() {
	hwA := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	hwB := createTestHardware(suite.T(), suite.db, "Dell XPS 15")
	pkg := suite.createPackage([]string{hwA.ID.String(), hwB.ID.String()}, nil)

	first, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)

	reversed := []string{hwB.ID.String(), hwA.ID.String()}
	_, err = suite.packageService.UpdatePackage(pkg.ID, &UpdatePackageRequest{HardwareIDs: &reversed})
	suite.Require().NoError(err)

	second, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)
}

func (suite *VersionServiceTestSuite) TestApprovalFlagFromSoftware() {
	sw := createTestSoftware(suite.T(), suite.db, "Adobe Creative Cloud", true)
	pkg := suite.createPackage(nil, []string{sw.ID.String()})

	version, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)
	suite.True(version.RequiresApproval)
}

func (suite *VersionServiceTestSuite) TestApprovalFlagFromApprovers() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	approver := createTestOperator(suite.T(), suite.db, "approver1")

	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Manager Kit",
		HardwareIDs: []string{hw.ID.String()},
		ApproverIDs: []string{approver.ID.String()},
	})
	suite.Require().NoError(err)

	version, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)
	suite.True(version.RequiresApproval)
}

func (suite *VersionServiceTestSuite) TestConcurrentSaveConflicts() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg := suite.createPackage([]string{hw.ID.String()}, nil)

	first, err := suite.versionService.GetOrCreateVersion(pkg.ID)
	suite.Require().NoError(err)

	// A writer that read the same latest state tries to take the same
	// version number and loses on the unique index.
	err = suite.versionService.createVersion(&models.PackageVersion{
		PackageID:     pkg.ID,
		VersionNumber: first.VersionNumber,
		ContentDigest: "different",
		CreatedDate:   first.CreatedDate,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindConflict))

	versions, err := suite.versionService.ListVersions(pkg.ID)
	suite.Require().NoError(err)
	suite.Len(versions, 1)
}

func (suite *VersionServiceTestSuite) TestUnknownPackage() {
	_, err := suite.versionService.GetOrCreateVersion(uuid.New())
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = suite.versionService.ListVersions(uuid.New())
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = suite.versionService.LatestVersion(uuid.New())
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestVersionServiceSuite(t *testing.T) {
	suite.Run(t, new(VersionServiceTestSuite))
}
