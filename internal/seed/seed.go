// Package seed fills an empty database with demo employees and approval
// requests. It is meant for development installs only.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sangwon4052/sangwon-sign-off/internal/models"
	"github.com/sangwon4052/sangwon-sign-off/internal/services"
	"github.com/sangwon4052/sangwon-sign-off/internal/storage"
	"github.com/sangwon4052/sangwon-sign-off/internal/store"
	"github.com/sangwon4052/sangwon-sign-off/pkg/logger"
)

// DemoPassword is the password of every generated employee.
const DemoPassword = "demo123"

const approvalsPerRequester = 2

type Options struct {
	AdminEmail string
	Users      int
	// Seed fixes the faker output; zero picks a random seed.
	Seed int64
}

type Result struct {
	Approvers  []models.User
	Requesters []models.User
	Approvals  []models.Approval
}

// Factory creates demo data through the services so every row obeys the
// same rules as data entered by hand.
type Factory struct {
	store     store.Store
	users     *services.UserService
	approvals *services.ApprovalService
	faker     *gofakeit.Faker
}

func NewFactory(s store.Store, users *services.UserService, approvals *services.ApprovalService, seed int64) *Factory {
	return &Factory{
		store:     s,
		users:     users,
		approvals: approvals,
		faker:     gofakeit.New(seed),
	}
}

// Run seeds demo data unless approvals already exist. It returns nil, nil
// when nothing was written.
func Run(ctx context.Context, s store.Store, users *services.UserService, approvals *services.ApprovalService, opts Options) (*Result, error) {
	existing, err := s.Approvals().Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		logger.Info("demo_seed_skipped", map[string]interface{}{"approvals": existing})
		return nil, nil
	}

	admins, err := s.Users().GetAll(ctx, store.Filter{"email": opts.AdminEmail, "role": models.RoleAdmin})
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("seed: administrator %q not found", opts.AdminEmail)
	}

	result, err := NewFactory(s, users, approvals, opts.Seed).Populate(ctx, &admins[0], opts.Users)
	if err != nil {
		return nil, err
	}
	logger.Info("demo_seed_completed", map[string]interface{}{
		"approvers":  len(result.Approvers),
		"requesters": len(result.Requesters),
		"approvals":  len(result.Approvals),
	})
	return result, nil
}

// Populate registers count employees, roughly a third of them approvers,
// files requests for every requester and decides about half of them.
func (f *Factory) Populate(ctx context.Context, admin *models.User, count int) (*Result, error) {
	if count < 2 {
		count = 2
	}
	approverCount := count / 3
	if approverCount < 1 {
		approverCount = 1
	}

	result := &Result{}
	for i := 0; i < count; i++ {
		role := models.RoleRequester
		if i < approverCount {
			role = models.RoleApprover
		}
		user, err := f.CreateEmployee(ctx, admin, role, i)
		if err != nil {
			return nil, err
		}
		if role == models.RoleApprover {
			result.Approvers = append(result.Approvers, *user)
		} else {
			result.Requesters = append(result.Requesters, *user)
		}
	}

	for _, requester := range result.Requesters {
		requester := requester
		for j := 0; j < approvalsPerRequester; j++ {
			approver := result.Approvers[f.faker.Number(0, len(result.Approvers)-1)]
			approval, err := f.CreateApproval(ctx, &requester, &approver)
			if err != nil {
				return nil, err
			}

			if j%2 == 1 {
				approval, err = f.Decide(ctx, &approver, approval)
				if err != nil {
					return nil, err
				}
			}
			result.Approvals = append(result.Approvals, *approval)
		}
	}
	return result, nil
}

func (f *Factory) CreateEmployee(ctx context.Context, admin *models.User, role models.Role, index int) (*models.User, error) {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	email := fmt.Sprintf("%s.%s%d@demo.local", strings.ToLower(first), strings.ToLower(last), index)

	return f.users.RegisterEmployee(ctx, admin, services.RegisterInput{
		Name:            first + " " + last,
		Email:           email,
		Password:        DemoPassword,
		PasswordConfirm: DemoPassword,
		Role:            role,
	})
}

func (f *Factory) CreateApproval(ctx context.Context, requester, approver *models.User) (*models.Approval, error) {
	title := strings.TrimSuffix(f.faker.Sentence(4), ".")
	body := f.faker.Paragraph(1, 3, 8, "\n")

	return f.approvals.SubmitRequest(ctx, requester, services.SubmitInput{
		Title:              title,
		Description:        f.faker.Sentence(12),
		AssignedApproverID: approver.ID,
		Files: []models.Attachment{{
			Name:          strings.ToLower(f.faker.Word()) + ".txt",
			ContentHandle: storage.EncodeDataURI("text/plain", []byte(body)),
		}},
	})
}

func (f *Factory) Decide(ctx context.Context, approver *models.User, approval *models.Approval) (*models.Approval, error) {
	decision := models.DecisionRejected
	var signed []models.Attachment
	if f.faker.Bool() {
		decision = models.DecisionApproved
		signed = []models.Attachment{{
			Name:          "signed-" + approval.Files[0].Name,
			ContentHandle: approval.Files[0].ContentHandle,
		}}
	}
	feedback := f.faker.Sentence(6)

	return f.approvals.ProcessRequest(ctx, approver, approval.ID, services.ProcessInput{
		Decision:    decision,
		Feedback:    &feedback,
		SignedFiles: signed,
	})
}
