package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
)

const (
	inviteTTL = 7 * 24 * time.Hour
	// no confusable characters (0/O, 1/I)
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLen  = 6
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrNotApproved    = errors.New("account pending approval")
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteUsed     = errors.New("invite already used")
	ErrInviteExpired  = errors.New("invite has expired")
)

type (
	Repository interface {
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		PendingUsers() ([]User, error)
		ApproveUser(id string) (User, error)
		SetLastLogin(id string, at time.Time) (User, error)
		CreateInvite(inv Invite) (Invite, error)
		GetInviteByCode(code string) (Invite, error)
		MarkInviteUsed(code string) (Invite, error)
	}

	Service struct {
		repo     Repository
		families *family.Service
		students student.Repository
		mailSvc  core.EmailService
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	families *family.Service,
	students student.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		families: families,
		students: students,
		mailSvc:  mailSvc,
		conf:     conf,
	}
}

// Authenticate checks credentials and stamps a last login time. Unapproved
// accounts fail with ErrNotApproved even with a valid password.
func (svc *Service) Authenticate(email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	if !usr.IsApproved {
		return User{}, ErrNotApproved
	}
	return svc.repo.SetLastLogin(usr.ID, time.Now().UTC())
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

// Signup registers a parent account against a family join code. The account
// stays unusable until an admin approves it.
func (svc *Service) Signup(s Signup) (User, error) {
	fam, err := svc.families.GetByCode(s.FamilyCode)
	if err != nil {
		if err == family.ErrNotFound {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "familyCode", Error: "invalid family code"})
		}
		return User{}, errors.Wrap(err, "looking up family code")
	}
	usr := User{
		ID:         uuid.New().String(),
		Name:       s.Name,
		Email:      s.Email,
		Role:       RoleParent,
		IsApproved: false,
		FamilyID:   fam.ID,
		CreatedAt:  time.Now().UTC(),
	}
	if err = usr.SetPassword(s.Password); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(usr)
	if err != nil {
		if err == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) PendingUsers() ([]User, error) {
	return svc.repo.PendingUsers()
}

func (svc *Service) Approve(id string) (User, error) {
	return svc.repo.ApproveUser(id)
}

// InviteBatch creates a family, links the given students to it and issues a
// one-shot invite per parent, emailed out through the EmailService.
func (svc *Service) InviteBatch(b InviteBatch) (family.Family, []Invite, error) {
	fam, err := svc.families.Create(b.FamilyName)
	if err != nil {
		return family.Family{}, nil, errors.Wrap(err, "creating family")
	}
	for _, sid := range b.StudentIDs {
		if _, err = svc.students.SetStudentFamily(sid, fam.ID); err != nil {
			if err == student.ErrNotFound {
				continue
			}
			return family.Family{}, nil, errors.Wrap(err, "linking student")
		}
	}

	now := time.Now().UTC()
	invites := make([]Invite, 0, len(b.Parents))
	messages := make([]*core.EmailMessage, 0, len(b.Parents))
	for _, p := range b.Parents {
		inv := Invite{
			Code:       inviteCode(),
			Email:      p.Email,
			Name:       p.Name,
			Role:       p.Role,
			FamilyID:   fam.ID,
			StudentIDs: b.StudentIDs,
			ExpiresAt:  now.Add(inviteTTL),
			CreatedAt:  now,
		}
		inv, err = svc.repo.CreateInvite(inv)
		if err != nil {
			return family.Family{}, nil, errors.Wrap(err, "creating invite")
		}
		invites = append(invites, inv)
		messages = append(messages, svc.inviteEmail(inv))
	}
	svc.mailSvc.SendMessages(messages...)
	return fam, invites, nil
}

// ValidateInvite resolves an invite code to the invitee details and the
// students it covers, without consuming it.
func (svc *Service) ValidateInvite(code string) (Invite, []student.Student, error) {
	inv, err := svc.repo.GetInviteByCode(normalizeInviteCode(code))
	if err != nil {
		return Invite{}, nil, err
	}
	if inv.IsUsed {
		return Invite{}, nil, ErrInviteUsed
	}
	if inv.Expired(time.Now().UTC()) {
		return Invite{}, nil, ErrInviteExpired
	}
	students := make([]student.Student, 0, len(inv.StudentIDs))
	for _, id := range inv.StudentIDs {
		s, err := svc.students.GetStudentByID(id)
		if err != nil {
			if err == student.ErrNotFound {
				continue
			}
			return Invite{}, nil, err
		}
		students = append(students, s)
	}
	return inv, students, nil
}

// CompleteSignup consumes an invite and creates the pre-approved account.
func (svc *Service) CompleteSignup(cs CompleteSignup) (User, error) {
	inv, _, err := svc.ValidateInvite(cs.Code)
	if err != nil {
		return User{}, err
	}
	usr := User{
		ID:         uuid.New().String(),
		Name:       inv.Name,
		Email:      inv.Email,
		Role:       inv.Role,
		IsApproved: true, // invited users skip manual approval
		FamilyID:   inv.FamilyID,
		CreatedAt:  time.Now().UTC(),
	}
	if err = usr.SetPassword(cs.Password); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(usr)
	if err != nil {
		if err == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	if _, err = svc.repo.MarkInviteUsed(inv.Code); err != nil {
		return User{}, errors.Wrap(err, "consuming invite")
	}
	return usr, nil
}

func (svc *Service) inviteEmail(inv Invite) *core.EmailMessage {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been invited to %s as %s.\n"+
			"Use code %s to finish setting up your account:\n%s/invite\n\n"+
			"The code expires on %s.",
		inv.Name, svc.conf.AppName, inv.Role,
		inv.Code, svc.conf.FrontendBaseURL,
		inv.ExpiresAt.Format("Mon, 02 Jan 2006"),
	)
	return &core.EmailMessage{
		To:      []mail.Address{{Name: inv.Name, Address: inv.Email}},
		Subject: "You are invited",
		BodyStr: body,
	}
}

func normalizeInviteCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

func inviteCode() string {
	return core.RandomCode(inviteAlphabet, inviteCodeLen)
}
