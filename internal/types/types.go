package types

import "time"

type Runtime string

const (
	RuntimePython Runtime = "python"
	RuntimeNodeJS Runtime = "nodejs"
	RuntimeRust   Runtime = "rust"
)

type AgentCategory string

const (
	CategoryAutomation     AgentCategory = "automation"
	CategoryDataProcessing AgentCategory = "data-processing"
	CategoryAIML           AgentCategory = "ai-ml"
	CategoryWebScraping    AgentCategory = "web-scraping"
	CategoryAPIIntegration AgentCategory = "api-integration"
	CategoryMonitoring     AgentCategory = "monitoring"
	CategoryUtilities      AgentCategory = "utilities"
	CategoryOther          AgentCategory = "other"
)

type Agent struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Category      AgentCategory `json:"category"`
	Runtime       Runtime       `json:"runtime"`
	Version       string        `json:"version"`
	UserID        string        `json:"user_id"`
	DockerImage   string        `json:"docker_image,omitempty"`
	SourceCodeURL string        `json:"source_code_url,omitempty"`
	ConfigSchema  string        `json:"config_schema,omitempty"`
	IsPublic      bool          `json:"is_public"`
	Downloads     int           `json:"downloads"`
	Rating        float64       `json:"rating"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CreateAgentRequest struct {
	Name          string        `json:"name" validate:"required,max=100"`
	Description   string        `json:"description" validate:"max=1000"`
	Category      AgentCategory `json:"category" validate:"required,oneof=automation data-processing ai-ml web-scraping api-integration monitoring utilities other"`
	Runtime       Runtime       `json:"runtime" validate:"required,oneof=python nodejs rust"`
	Version       string        `json:"version" validate:"omitempty,semver"`
	DockerImage   string        `json:"docker_image" validate:"omitempty,url"`
	SourceCodeURL string        `json:"source_code_url" validate:"omitempty,url"`
	ConfigSchema  string        `json:"config_schema"`
	IsPublic      bool          `json:"is_public"`
}

// AgentQuery captures the supported listing filters. Zero values mean
// "no filter"; IsPublic is a pointer so false can be filtered explicitly.
type AgentQuery struct {
	Page     int
	Limit    int
	Category AgentCategory
	Runtime  Runtime
	Search   string
	UserID   string
	IsPublic *bool
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type AgentPage struct {
	Agents     []Agent    `json:"agents"`
	Pagination Pagination `json:"pagination"`
}

// UploadResult maps uploaded files into semantic slots. Each slot holds
// every matching key so that two config files never silently shadow
// each other.
type UploadResult struct {
	Entrypoint    []string `json:"entrypoint,omitempty"`
	Dockerfile    []string `json:"dockerfile,omitempty"`
	Dependency    []string `json:"dependency,omitempty"`
	Config        []string `json:"config,omitempty"`
	Documentation []string `json:"documentation,omitempty"`
}

// Empty reports whether no file was placed into any slot
func (r UploadResult) Empty() bool {
	return len(r.Entrypoint) == 0 && len(r.Dockerfile) == 0 &&
		len(r.Dependency) == 0 && len(r.Config) == 0 && len(r.Documentation) == 0
}

// AgentWithStats is an agent row joined with marketplace aggregates
type AgentWithStats struct {
	Agent
	ReviewCount int `json:"review_count"`
}

type AgentReview struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type Deployment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AgentID     string    `json:"agent_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	URL         string    `json:"url,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Config      string    `json:"config,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DeploymentLog struct {
	ID           string    `json:"id"`
	DeploymentID string    `json:"deployment_id"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}
