package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultRegisterTimeout bounds the registration transaction
const DefaultRegisterTimeout = 10 * time.Second

// BirthDateLayout is the accepted birthDate format
const BirthDateLayout = "2006-01-02"

// RegisterUserMessage is the registration payload. Address fields may come
// pre-joined (finalCurrentAddress, finalPermanentAddress) or as components.
type RegisterUserMessage struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`

	BirthDate string `json:"birthDate"`
	CCCD      string `json:"cccd"`
	Gender    string `json:"gender"`

	FinalCurrentAddress   string `json:"finalCurrentAddress"`
	FinalPermanentAddress string `json:"finalPermanentAddress"`
	Address               string `json:"address"`
	Ward                  string `json:"ward"`
	District              string `json:"district"`
	City                  string `json:"city"`
	PermanentAddress      string `json:"permanentAddress"`
	PermanentWard         string `json:"permanentWard"`
	PermanentDistrict     string `json:"permanentDistrict"`
	PermanentCity         string `json:"permanentCity"`

	EmergencyName     string `json:"emergencyName"`
	EmergencyPhone    string `json:"emergencyPhone"`
	EmergencyRelation string `json:"emergencyRelation"`

	UAVTypes        UAVTypes `json:"uavTypes"`
	UAVPurpose      string   `json:"uavPurpose"`
	ActivityArea    string   `json:"activityArea"`
	Experience      string   `json:"experience"`
	CertificateType string   `json:"certificateType"`

	OnResponse func(resp *RegisterUserResponse) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Phone, validation.Required, validation.By(possiblePhone)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(1, 72)),
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.BirthDate, validation.Date(BirthDateLayout)),
		validation.Field(&e.EmergencyPhone, validation.By(possiblePhone)),
	)
}

// Normalized trims the credential fields so the duplicate check and the
// insert see the same values
func (e RegisterUserMessage) Normalized() RegisterUserMessage {
	e.Phone = strings.TrimSpace(e.Phone)
	e.Email = strings.TrimSpace(e.Email)
	e.FullName = strings.TrimSpace(e.FullName)
	return e
}

// Redacted returns a copy safe for debug output
func (e RegisterUserMessage) Redacted() (RegisterUserMessage, error) {
	e.OnResponse = nil
	return redacted(e)
}

// CurrentAddress resolves the current address input
func (e RegisterUserMessage) CurrentAddress() AddressInput {
	return NewAddressInput(e.FinalCurrentAddress, AddressComponents{
		Street:   e.Address,
		Ward:     e.Ward,
		District: e.District,
		City:     e.City,
	})
}

// PermanentAddressInput resolves the permanent address input
func (e RegisterUserMessage) PermanentAddressInput() AddressInput {
	return NewAddressInput(e.FinalPermanentAddress, AddressComponents{
		Street:   e.PermanentAddress,
		Ward:     e.PermanentWard,
		District: e.PermanentDistrict,
		City:     e.PermanentCity,
	})
}

var errInvalidPhone = stderrors.New("must be a valid phone number")

func possiblePhone(value any) error {
	s, _ := value.(string)
	if s == "" || IsPossiblePhone(s) {
		return nil
	}
	return errInvalidPhone
}

// RegisterUserResponse is passed to OnResponse after commit
type RegisterUserResponse struct {
	User    *User
	Profile *UserProfile
}

// RegisterUserHandler persists a user and its profile as one atomic unit
type RegisterUserHandler struct {
	repo      RepositoryManager
	hasher    PasswordHasher
	timeout   time.Duration
	useHashid bool
	hashidOpt []hashid.Option
	logger    Logger
	activity  ActivitySink
}

// RegisterUserOption configures a RegisterUserHandler
type RegisterUserOption func(*RegisterUserHandler)

func WithRegisterHasher(h PasswordHasher) RegisterUserOption {
	return func(r *RegisterUserHandler) {
		if h != nil {
			r.hasher = h
		}
	}
}

func WithRegisterTimeout(d time.Duration) RegisterUserOption {
	return func(r *RegisterUserHandler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRegisterHashid derives user ids from the email address. When the
// derivation fails the user gets a random id.
func WithRegisterHashid(enabled bool, opts ...hashid.Option) RegisterUserOption {
	return func(r *RegisterUserHandler) {
		r.useHashid = enabled
		r.hashidOpt = opts
	}
}

func WithRegisterLogger(l Logger) RegisterUserOption {
	return func(r *RegisterUserHandler) {
		r.logger = normalizeLogger(l)
	}
}

func WithRegisterActivitySink(s ActivitySink) RegisterUserOption {
	return func(r *RegisterUserHandler) {
		r.activity = normalizeActivitySink(s)
	}
}

func NewRegisterUserHandler(repo RepositoryManager, opts ...RegisterUserOption) *RegisterUserHandler {
	h := &RegisterUserHandler{
		repo:     repo,
		hasher:   NewBcryptHasher(),
		timeout:  DefaultRegisterTimeout,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	event = event.Normalized()
	if err := event.Validate(); err != nil {
		return NewValidationError(err)
	}

	birthDate, err := parseBirthDate(event.BirthDate)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp := &RegisterUserResponse{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Users().ExistsByPhoneOrEmailTx(ctx, tx, event.Phone, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing credentials")
		}
		if exists {
			return ErrDuplicateCredential
		}

		hash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			return err
		}

		user := &User{
			Phone:        event.Phone,
			Email:        event.Email,
			PasswordHash: hash,
			FullName:     event.FullName,
			Role:         RoleStudent,
			IsActive:     true,
		}
		if h.useHashid {
			id, err := hashid.NewUUID(user.Email, h.hashidOpt...)
			if err != nil {
				h.logger.Warn("hashid user id failed, using random id", "email", user.Email, "error", err)
			} else {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsDuplicateKeyError(err) {
				return ErrDuplicateCredential
			}
			return err
		}

		profile := buildProfile(user.ID, event, birthDate)
		if profile, err = h.repo.UserProfiles().CreateTx(ctx, tx, profile); err != nil {
			return err
		}

		resp.User = user
		resp.Profile = profile
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		h.logger.Error("user registration transaction failed", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, err.Error()).
			WithTextCode(TextCodeServerError).
			WithCode(goerrors.CodeInternal)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType:  ActivityEventRegisterSuccess,
		UserID:     resp.User.ID.String(),
		Identifier: resp.User.Email,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func buildProfile(userID uuid.UUID, event RegisterUserMessage, birthDate *time.Time) *UserProfile {
	return &UserProfile{
		UserID:                   userID,
		Address:                  event.CurrentAddress().Resolve(),
		PermanentAddress:         event.PermanentAddressInput().Resolve(),
		IdentityNumber:           event.CCCD,
		BirthDate:                birthDate,
		Gender:                   optionalString(event.Gender),
		EmergencyContactName:     event.EmergencyName,
		EmergencyContactPhone:    event.EmergencyPhone,
		EmergencyContactRelation: event.EmergencyRelation,
		UAVType:                  event.UAVTypes.Join(),
		UsagePurpose:             event.UAVPurpose,
		OperationArea:            event.ActivityArea,
		UAVExperience:            event.Experience,
		TargetTier:               event.CertificateType,
	}
}

func parseBirthDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(BirthDateLayout, value)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "birthDate must use YYYY-MM-DD").
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return &t, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
