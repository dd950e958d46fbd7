package domain

// ============================================================
// Registration wizard: draft accumulated across steps
// ============================================================

// RegistrationDraft is the transient state of one wizard session. It lives
// only in the BFA wizard store and is dropped on completion or expiry.
type RegistrationDraft struct {
	CompanyName  string   `json:"companyName"`
	OwnerName    string   `json:"ownerName"`
	Email        string   `json:"email"`
	CpfCnpj      string   `json:"cpfCnpj"`
	Phone        string   `json:"phone"`
	Password     string   `json:"-"`
	Address      *Address `json:"address"`
	AcceptTerms  bool     `json:"acceptTerms"`
	ClientID     string   `json:"clientId,omitempty"`
	ClientUserID string   `json:"clientUserId,omitempty"`

	// Plans is the list of active plans shown on the plan step.
	Plans []Plan `json:"plans,omitempty"`
}

// HasPassword reports whether the credentials step has been completed.
func (d RegistrationDraft) HasPassword() bool {
	return d.Password != ""
}

// DraftPatch is a partial draft. Nil fields are left untouched by Merge.
type DraftPatch struct {
	CompanyName  *string
	OwnerName    *string
	Email        *string
	CpfCnpj      *string
	Phone        *string
	Password     *string
	Address      *Address
	AcceptTerms  *bool
	ClientID     *string
	ClientUserID *string
	Plans        []Plan
}

// NewRegistrationDraft returns the initial empty draft.
func NewRegistrationDraft() RegistrationDraft {
	return RegistrationDraft{}
}

// Merge returns a copy of d with every non-nil field of p applied.
// The merge is shallow: an address in p replaces the whole address.
func (d RegistrationDraft) Merge(p DraftPatch) RegistrationDraft {
	if p.CompanyName != nil {
		d.CompanyName = *p.CompanyName
	}
	if p.OwnerName != nil {
		d.OwnerName = *p.OwnerName
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.CpfCnpj != nil {
		d.CpfCnpj = *p.CpfCnpj
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Password != nil {
		d.Password = *p.Password
	}
	if p.Address != nil {
		addr := *p.Address
		d.Address = &addr
	}
	if p.AcceptTerms != nil {
		d.AcceptTerms = *p.AcceptTerms
	}
	if p.ClientID != nil {
		d.ClientID = *p.ClientID
	}
	if p.ClientUserID != nil {
		d.ClientUserID = *p.ClientUserID
	}
	if p.Plans != nil {
		d.Plans = append(make([]Plan, 0, len(p.Plans)), p.Plans...)
	}
	return d
}

// CompanyStepInput is the body of wizard step 1.
type CompanyStepInput struct {
	CompanyName string `json:"companyName" validate:"required,min=2,max=120"`
	OwnerName   string `json:"ownerName" validate:"required,min=3,max=120"`
	Email       string `json:"email" validate:"required,email"`
	CpfCnpj     string `json:"cpfCnpj" validate:"required,cpfcnpj"`
	Phone       string `json:"phone" validate:"required,phonebr"`
}

// CredentialsStepInput is the body of wizard step 3.
type CredentialsStepInput struct {
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
	AcceptTerms          bool   `json:"acceptTerms" validate:"required"`
}

// ActivationRequest is the body of the plan step.
type ActivationRequest struct {
	PlanID string `json:"planId"`
}

// ActivationResult is returned once the activation sequence completed.
type ActivationResult struct {
	ClientPlan       *ClientPlan       `json:"clientPlan"`
	ClientPeriodPlan *ClientPeriodPlan `json:"clientPeriodPlan"`
	Session          *SessionResponse  `json:"session"`
	RedirectTo       string            `json:"redirectTo"`
	NewPlan          bool              `json:"newPlan"`
}

// WizardResponse is what the BFA returns for every wizard call.
type WizardResponse struct {
	WizardID    string            `json:"wizardId"`
	Draft       RegistrationDraft `json:"draft"`
	HasPassword bool              `json:"hasPassword"`
}

// Named steps of the plan activation sequence, in execution order.
const (
	StepUpdateClientUser       = "update_client_user"
	StepUpdateClient           = "update_client"
	StepFetchTerms             = "fetch_terms"
	StepAcceptTerms            = "accept_terms"
	StepCreateClientPlan       = "create_client_plan"
	StepCreateClientPeriodPlan = "create_client_period_plan"
	StepLogin                  = "login"
)

// ActivationSteps lists every activation step in execution order.
var ActivationSteps = []string{
	StepUpdateClientUser,
	StepUpdateClient,
	StepFetchTerms,
	StepAcceptTerms,
	StepCreateClientPlan,
	StepCreateClientPeriodPlan,
	StepLogin,
}
