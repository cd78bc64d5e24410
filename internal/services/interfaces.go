package services

import (
	"github.com/shopspring/decimal"

	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/pricing"
	"limify/internal/quota"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name, company string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// PlanUsage is how much of each quota-limited resource a user consumes.
type PlanUsage map[quota.Resource]int64

// PlanSummary is a user's plan with its resolved limits and current usage. Remaining is
// null for unlimited resources.
type PlanSummary struct {
	Plan      *models.UserPlan          `json:"plan"`
	Limits    quota.Limits              `json:"limits" swaggertype:"object"`
	Usage     PlanUsage                 `json:"usage" swaggertype:"object"`
	Remaining map[quota.Resource]*int64 `json:"remaining" swaggertype:"object"`
}

// PlanInput is what the billing collaborator sends. A nil Quotas map applies the tier
// defaults; a present key with a null value means unlimited.
type PlanInput struct {
	UserID               string
	Tier                 quota.Tier
	Status               models.PlanStatus
	Quotas               map[quota.Resource]*int
	StripeCustomerID     string
	StripeSubscriptionID string
}

// PlanServicer resolves plans and enforces quotas.
type PlanServicer interface {
	GetPlan(userID string) (*models.UserPlan, error)
	GetLimits(userID string) (quota.Limits, error)
	GetUsage(userID string) (PlanUsage, error)
	GetSummary(userID string) (*PlanSummary, error)
	HasQuota(userID string, resource quota.Resource, currentUsage int64) (bool, error)
	CheckQuota(userID string, resource quota.Resource, currentUsage int64) error
	ApplyPlan(input PlanInput) (*models.UserPlan, error)
}

// ClientInput carries the editable fields of a client.
type ClientInput struct {
	Name     string
	Company  string
	Email    string
	Phone    string
	Document string
	Address  string
	City     string
	State    string
	Notes    string
}

// ClientServicer defines the contract for client-related business logic.
type ClientServicer interface {
	CreateClient(userID string, input ClientInput) (*models.Client, error)
	GetUserClients(userID, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Client], error)
	GetClientByID(userID, clientID string) (*models.Client, error)
	UpdateClient(userID, clientID string, input ClientInput) (*models.Client, error)
	DeleteClient(userID, clientID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name, color string) (*models.Category, error)
	GetCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// ExpenseInput carries the editable fields of an expense.
type ExpenseInput struct {
	Name       string
	CategoryID *string
	Value      decimal.Decimal
	Frequency  string
	IsFixed    bool
	Notes      string
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	State    *models.LifecycleState
	Archived *bool
	IsFixed  *bool
}

// CategoryCost is the recurring cost attributed to one category.
type CategoryCost struct {
	CategoryID *string         `json:"category_id"`
	Name       string          `json:"name"`
	Monthly    decimal.Decimal `json:"monthly"`
}

// ExpenseSummary is the recurring cost of the user's active, non-archived expenses.
type ExpenseSummary struct {
	Monthly         decimal.Decimal `json:"monthly"`
	Annual          decimal.Decimal `json:"annual"`
	FixedMonthly    decimal.Decimal `json:"fixed_monthly"`
	PunctualMonthly decimal.Decimal `json:"punctual_monthly"`
	Count           int             `json:"count"`
	ByCategory      []CategoryCost  `json:"by_category"`
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID string, input ExpenseInput) (*models.Expense, error)
	GetUserExpenses(userID string, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, input ExpenseInput) (*models.Expense, error)
	TransitionExpense(userID, expenseID string, event models.LifecycleEvent) (*models.Expense, error)
	SetArchived(userID, expenseID string, archived bool) (*models.Expense, error)
	GetSummary(userID string) (*ExpenseSummary, error)
}

// ItemInput is one line of an item-based budget.
type ItemInput struct {
	Description     string
	PricePerUnit    decimal.Decimal
	Quantity        decimal.Decimal
	DevelopmentDays *int
	ImageCount      *int
	Complexity      string
}

// ActivityInput is one activity of a complete budget. SegmentKey attributes a phase-level
// activity to a segment of the same phase. TotalCost, when sent, must match
// Time × CostPerHour.
type ActivityInput struct {
	Name        string
	Time        decimal.Decimal
	CostPerHour decimal.Decimal
	TotalCost   *decimal.Decimal
	Complexity  string
	SegmentKey  *string
}

// SegmentInput is one segment of a phase.
type SegmentInput struct {
	Key        string
	Name       string
	Activities []ActivityInput
}

// PhaseInput is one phase of a complete budget.
type PhaseInput struct {
	Name        string
	Description string
	BaseValue   decimal.Decimal
	Segments    []SegmentInput
	Activities  []ActivityInput
}

// BudgetInput is the full editable content of a budget. Totals are always computed.
type BudgetInput struct {
	ClientID     *string
	Name         string
	Description  string
	Type         models.BudgetType
	ValueType    models.ValueType
	UnitPrice    *decimal.Decimal
	Discount     decimal.Decimal
	DiscountType pricing.DiscountType
	Items        []ItemInput
	Phases       []PhaseInput
	Additionals  *pricing.Additionals
	References   []string
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	Status *models.BudgetStatus
	Type   *models.BudgetType
	State  *models.LifecycleState
	Search string
}

// PhaseQuote is the computed total of one phase in a quote.
type PhaseQuote struct {
	Name     string            `json:"name"`
	Total    decimal.Decimal   `json:"total"`
	Segments []decimal.Decimal `json:"segments"`
}

// Quote is a computed budget that has not been stored.
type Quote struct {
	Items     []decimal.Decimal `json:"items,omitempty"`
	Phases    []PhaseQuote      `json:"phases,omitempty"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	Quote(input BudgetInput) (*Quote, error)
	CreateBudget(userID string, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error)
	UpdateStatus(userID, budgetID string, status models.BudgetStatus) (*models.Budget, error)
	TransitionBudget(userID, budgetID string, event models.LifecycleEvent) (*models.Budget, error)
}

// PublishInput is the presentation configuration frozen with a publication.
type PublishInput struct {
	Title        string
	Subtitle     string
	HeaderImage  string
	SectionOrder []string
	Sections     models.PublicationSections
}

// PublicationServicer freezes budgets into immutable public snapshots.
type PublicationServicer interface {
	Publish(userID, budgetID string, input PublishInput) (*models.BudgetPublication, error)
	GetPublications(userID, budgetID string) ([]models.BudgetPublication, error)
	GetPublicBudget(budgetID string) (*models.BudgetPublication, error)
}

// TeamView is a team with its members.
type TeamView struct {
	Team    *models.Team        `json:"team"`
	Members []models.TeamMember `json:"members"`
}

// TeamServicer manages a user's team, its members and invites.
type TeamServicer interface {
	GetTeam(userID string) (*TeamView, error)
	CreateInvite(userID, email string, role models.TeamRole) (*models.TeamInvite, error)
	GetInvites(userID string) ([]models.TeamInvite, error)
	AcceptInvite(userID, token string) (*models.TeamMember, error)
	RemoveMember(userID, memberID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
