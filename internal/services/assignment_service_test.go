// internal/services/assignment_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

type AssignmentServiceTestSuite struct {
	suite.Suite
	db                *gorm.DB
	assignmentService *AssignmentService
	packageService    *PackageService
	versionService    *VersionService
	operator          *models.Operator
}

func (suite *AssignmentServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.versionService = NewVersionService(suite.db)
	catalogService := NewCatalogService(suite.db, suite.versionService)
	suite.packageService = NewPackageService(suite.db, suite.versionService)
	ticketService := NewTicketService(suite.db, newTestConfig())
	approvalService := NewApprovalService(suite.db, ticketService)
	suite.assignmentService = NewAssignmentService(suite.db, suite.versionService, catalogService, approvalService)
	suite.operator = createTestOperator(suite.T(), suite.db, "assigner")
}

func (suite *AssignmentServiceTestSuite) TestAssignmentPinsVersionAcrossEdits() {
	original := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Engineering Starter",
		HardwareIDs: []string{original.ID.String()},
	})
	suite.Require().NoError(err)

	result, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypePreHire,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.Require().NoError(err)

	pinnedVersionID := result.Assignment.PackageVersionID

	// Edit and re-save the package several times after the assignment.
	for i := 0; i < 3; i++ {
		replacement := createTestHardware(suite.T(), suite.db, "Replacement")
		ids := []string{replacement.ID.String()}
		_, err := suite.packageService.UpdatePackage(pkg.ID, &UpdatePackageRequest{HardwareIDs: &ids})
		suite.Require().NoError(err)
		_, err = suite.packageService.SavePackage(pkg.ID)
		suite.Require().NoError(err)
	}

	reloaded, err := suite.assignmentService.GetAssignment(result.Assignment.ID)
	suite.Require().NoError(err)
	suite.Equal(pinnedVersionID, reloaded.PackageVersionID)

	// Effective equipment still resolves the originally promised item.
	items, err := suite.assignmentService.EffectiveEquipment(result.Assignment.ID)
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal(models.ItemKindHardware, items[0].Kind)
	suite.Equal(original.ID, items[0].Hardware.ID)
}

func (suite *AssignmentServiceTestSuite) TestAssignWithoutApproversAutoApproves() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Standard Kit",
		HardwareIDs: []string{hw.ID.String()},
	})
	suite.Require().NoError(err)

	result, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.Require().NoError(err)

	suite.Equal(models.ApprovalStatusApproved, result.Approval.Status)
	suite.True(result.Approval.AutomatedDecision)
}

func (suite *AssignmentServiceTestSuite) TestAssignApprovedSoftwareStaysPending() {
	sw := createTestSoftware(suite.T(), suite.db, "Adobe Creative Cloud", true)
	approver := createTestOperator(suite.T(), suite.db, "approver1")
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Design Kit",
		SoftwareIDs: []string{sw.ID.String()},
		ApproverIDs: []string{approver.ID.String()},
	})
	suite.Require().NoError(err)

	result, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypePreHire,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.Require().NoError(err)

	suite.Equal(models.ApprovalStatusPending, result.Approval.Status)
	suite.Require().NotNil(result.Approval.PackageAssignmentID)
	suite.Equal(result.Assignment.ID, *result.Approval.PackageAssignmentID)
}

func (suite *AssignmentServiceTestSuite) TestArchivedPackageRejected() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Old Kit",
		HardwareIDs: []string{hw.ID.String()},
	})
	suite.Require().NoError(err)

	_, err = suite.packageService.ArchivePackage(pkg.ID)
	suite.Require().NoError(err)

	_, err = suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *AssignmentServiceTestSuite) TestUnassignFlipsStatusOnly() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")
	pkg, err := suite.packageService.CreatePackage(&CreatePackageRequest{
		Name:        "Standard Kit",
		HardwareIDs: []string{hw.ID.String()},
	})
	suite.Require().NoError(err)

	result, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.Require().NoError(err)

	unassigned, err := suite.assignmentService.Unassign(result.Assignment.ID)
	suite.Require().NoError(err)
	suite.Equal(models.AssignmentStatusUnassigned, unassigned.Status)
	suite.NotNil(unassigned.UnassignedAt)
	suite.Equal(result.Assignment.PackageVersionID, unassigned.PackageVersionID)

	// Unassigning twice is a harmless no-op.
	again, err := suite.assignmentService.Unassign(result.Assignment.ID)
	suite.Require().NoError(err)
	suite.Equal(models.AssignmentStatusUnassigned, again.Status)
}

func (suite *AssignmentServiceTestSuite) TestFailedApprovalRollsBackAssignment() {
	hw := createTestHardware(suite.T(), suite.db, "ThinkPad X1")

	// Seeded directly with a malformed approver id, as if the operator
	// behind it had been purged and replaced by a raw import.
	pkg := &models.EquipmentPackage{
		Name:        "Drifted Kit",
		HardwareIDs: pq.StringArray{hw.ID.String()},
		ApproverIDs: pq.StringArray{"not-a-uuid"},
		Status:      models.PackageStatusActive,
	}
	suite.Require().NoError(suite.db.Create(pkg).Error)

	_, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
		PackageID:   pkg.ID,
	}, suite.operator.ID)
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))

	// The assignment insert rolled back with the failed submission.
	var assignments int64
	suite.Require().NoError(suite.db.Model(&models.PackageAssignment{}).Count(&assignments).Error)
	suite.Zero(assignments)

	var requests int64
	suite.Require().NoError(suite.db.Model(&models.ApprovalRequest{}).Count(&requests).Error)
	suite.Zero(requests)
}

func (suite *AssignmentServiceTestSuite) TestAssignUnknownPackage() {
	_, err := suite.assignmentService.Assign(&AssignPackageRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
		PackageID:   uuid.New(),
	}, suite.operator.ID)
	suite.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestAssignmentServiceSuite(t *testing.T) {
	suite.Run(t, new(AssignmentServiceTestSuite))
}
