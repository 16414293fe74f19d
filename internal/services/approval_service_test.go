// internal/services/approval_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/models"
)

type ApprovalServiceTestSuite struct {
	suite.Suite
	db              *gorm.DB
	approvalService *ApprovalService
	approver        *models.Operator
}

func (suite *ApprovalServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	ticketService := NewTicketService(suite.db, newTestConfig())
	suite.approvalService = NewApprovalService(suite.db, ticketService)
	suite.approver = createTestOperator(suite.T(), suite.db, "approver1")
}

func (suite *ApprovalServiceTestSuite) submitPending() *models.ApprovalRequest {
	request, err := suite.approvalService.Submit(&SubmitApprovalRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypePreHire,
		ApproverIDs: []string{suite.approver.ID.String()},
	})
	suite.Require().NoError(err)
	suite.Require().Equal(models.ApprovalStatusPending, request.Status)
	return request
}

func (suite *ApprovalServiceTestSuite) ticketCount(requestID uuid.UUID) int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.ProvisioningTicket{}).
		Where("approval_request_id = ?", requestID).
		Count(&count).Error)
	return count
}

func (suite *ApprovalServiceTestSuite) TestNoApproversAutoApproves() {
	request, err := suite.approvalService.Submit(&SubmitApprovalRequest{
		SubjectID:   uuid.New(),
		SubjectType: models.SubjectTypeEmployee,
	})
	suite.Require().NoError(err)

	suite.Equal(models.ApprovalStatusApproved, request.Status)
	suite.True(request.AutomatedDecision)
	suite.NotNil(request.ApprovalDate)
	suite.Equal(int64(1), suite.ticketCount(request.ID))
}

func (suite *ApprovalServiceTestSuite) TestApproverRequiredStaysPending() {
	request := suite.submitPending()

	suite.False(request.AutomatedDecision)
	suite.Equal(int64(0), suite.ticketCount(request.ID))
}

func (suite *ApprovalServiceTestSuite) TestApproveOpensTicket() {
	request := suite.submitPending()

	decided, err := suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.Require().NoError(err)

	suite.Equal(models.ApprovalStatusApproved, decided.Status)
	suite.Require().NotNil(decided.ApprovedBy)
	suite.Equal(suite.approver.ID, *decided.ApprovedBy)
	suite.Equal(int64(1), suite.ticketCount(request.ID))
}

func (suite *ApprovalServiceTestSuite) TestRejectRequiresReason() {
	request := suite.submitPending()

	_, err := suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: false,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))

	decided, err := suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: false,
		Reason:  "candidate withdrew",
	})
	suite.Require().NoError(err)
	suite.Equal(models.ApprovalStatusRejected, decided.Status)
	suite.Equal("candidate withdrew", decided.RejectionReason)
	suite.Equal(int64(0), suite.ticketCount(request.ID))
}

func (suite *ApprovalServiceTestSuite) TestSecondDecisionLoses() {
	request := suite.submitPending()

	_, err := suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.Require().NoError(err)

	_, err = suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: false,
		Reason:  "too late",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindAlreadyDecided))

	// The first decision stands and only one ticket exists.
	reloaded, err := suite.approvalService.GetRequest(request.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ApprovalStatusApproved, reloaded.Status)
	suite.Equal(int64(1), suite.ticketCount(request.ID))
}

func (suite *ApprovalServiceTestSuite) TestNonApproverCannotDecide() {
	request := suite.submitPending()
	outsider := createTestOperator(suite.T(), suite.db, "outsider")

	_, err := suite.approvalService.Decide(request.ID, outsider.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))
}

func (suite *ApprovalServiceTestSuite) TestCancelPendingRequest() {
	request := suite.submitPending()

	cancelled, err := suite.approvalService.Cancel(request.ID)
	suite.Require().NoError(err)
	suite.Equal(models.ApprovalStatusCancelled, cancelled.Status)
	suite.NotNil(cancelled.CancelledAt)

	_, err = suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindAlreadyDecided))
}

func (suite *ApprovalServiceTestSuite) TestEscalationTransfersAuthority() {
	request := suite.submitPending()
	escalatee := createTestOperator(suite.T(), suite.db, "manager")

	escalated, err := suite.approvalService.Escalate(request.ID, &EscalateApprovalRequest{
		EscalateTo: escalatee.ID,
		Reason:     "approver on leave",
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(escalated.EscalatedTo)
	suite.Equal(escalatee.ID, *escalated.EscalatedTo)

	// The original approver lost authority; the escalatee decides.
	_, err = suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.True(apperrors.IsKind(err, apperrors.KindValidation))

	decided, err := suite.approvalService.Decide(request.ID, escalatee.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.Require().NoError(err)
	suite.Equal(models.ApprovalStatusApproved, decided.Status)
}

func (suite *ApprovalServiceTestSuite) TestEscalateDecidedRequest() {
	request := suite.submitPending()

	_, err := suite.approvalService.Decide(request.ID, suite.approver.ID, &DecideApprovalRequest{
		Approve: true,
	})
	suite.Require().NoError(err)

	_, err = suite.approvalService.Escalate(request.ID, &EscalateApprovalRequest{
		EscalateTo: suite.approver.ID,
		Reason:     "stale",
	})
	suite.True(apperrors.IsKind(err, apperrors.KindAlreadyDecided))
}

func TestApprovalServiceSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}
