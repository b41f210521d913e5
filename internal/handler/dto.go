package handler

import (
	"time"

	"github.com/hitoshi/lifelog/internal/model"
)

// timeLayout はレスポンスの日時フォーマット。
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// profileResponse はプロフィールのAPIレスポンス。
type profileResponse struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Username    *string           `json:"username"`
	IsAnonymous bool              `json:"isAnonymous"`
	Preferences model.Preferences `json:"preferences"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
}

func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Email:       p.Email,
		Username:    p.Username,
		IsAnonymous: p.IsAnonymous,
		Preferences: p.Preferences,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// privateProfileResponse はプライベートプロフィールのAPIレスポンス。
type privateProfileResponse struct {
	ID           string   `json:"id"`
	Values       []string `json:"values"`
	Joys         []string `json:"joys"`
	RememberedAs string   `json:"rememberedAs"`
	ShareCode    *string  `json:"shareCode"`
	ShareExpiry  *string  `json:"shareExpiry"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func toPrivateProfileResponse(p *model.PrivateProfile) *privateProfileResponse {
	if p == nil {
		return nil
	}
	return &privateProfileResponse{
		ID:           p.ID,
		Values:       nonNilStrings(p.Values),
		Joys:         nonNilStrings(p.Joys),
		RememberedAs: p.RememberedAs,
		ShareCode:    p.ShareCode,
		ShareExpiry:  formatTimePtr(p.ShareExpiry),
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

// reflectionResponse は振り返りのAPIレスポンス。
type reflectionResponse struct {
	ID         string `json:"id"`
	DecisionID string `json:"decisionId"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
}

func toReflectionResponse(r *model.Reflection) reflectionResponse {
	return reflectionResponse{
		ID:         r.ID,
		DecisionID: r.DecisionID,
		Content:    r.Content,
		CreatedAt:  formatTime(r.CreatedAt),
	}
}

// decisionResponse は意思決定のAPIレスポンス。
type decisionResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	ConfidenceLevel int                  `json:"confidenceLevel"`
	Category        *string              `json:"category"`
	Tags            []string             `json:"tags"`
	LifePhaseID     *string              `json:"lifePhaseId"`
	Reflections     []reflectionResponse `json:"reflections"`
	CreatedAt       string               `json:"createdAt"`
	UpdatedAt       string               `json:"updatedAt"`
}

func toDecisionResponse(d *model.Decision) decisionResponse {
	reflections := make([]reflectionResponse, 0, len(d.Reflections))
	for i := range d.Reflections {
		reflections = append(reflections, toReflectionResponse(&d.Reflections[i]))
	}
	return decisionResponse{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		ConfidenceLevel: d.ConfidenceLevel,
		Category:        d.Category,
		Tags:            nonNilStrings(d.Tags),
		LifePhaseID:     d.LifePhaseID,
		Reflections:     reflections,
		CreatedAt:       formatTime(d.CreatedAt),
		UpdatedAt:       formatTime(d.UpdatedAt),
	}
}

func toDecisionResponses(ds []*model.Decision) []decisionResponse {
	out := make([]decisionResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDecisionResponse(d))
	}
	return out
}

// journalResponse はジャーナルエントリーのAPIレスポンス。
type journalResponse struct {
	ID          string      `json:"id"`
	Title       *string     `json:"title"`
	Content     string      `json:"content"`
	Mood        *model.Mood `json:"mood"`
	LifePhaseID *string     `json:"lifePhaseId"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

func toJournalResponse(e *model.JournalEntry) journalResponse {
	return journalResponse{
		ID:          e.ID,
		Title:       e.Title,
		Content:     e.Content,
		Mood:        e.Mood,
		LifePhaseID: e.LifePhaseID,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func toJournalResponses(es []*model.JournalEntry) []journalResponse {
	out := make([]journalResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toJournalResponse(e))
	}
	return out
}

// goalResponse は目標のAPIレスポンス。
type goalResponse struct {
	ID          string           `json:"id"`
	LifePhaseID string           `json:"lifePhaseId"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Status      model.GoalStatus `json:"status"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

func toGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{
		ID:          g.ID,
		LifePhaseID: g.LifePhaseID,
		Title:       g.Title,
		Description: g.Description,
		Status:      g.Status,
		CreatedAt:   formatTime(g.CreatedAt),
		UpdatedAt:   formatTime(g.UpdatedAt),
	}
}

// phaseResponse はライフフェーズのAPIレスポンス。
type phaseResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	StartDate   string         `json:"startDate"`
	EndDate     *string        `json:"endDate"`
	IsActive    bool           `json:"isActive"`
	Values      []string       `json:"values"`
	Goals       []goalResponse `json:"goals"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

func toPhaseResponse(p *model.LifePhase) phaseResponse {
	goals := make([]goalResponse, 0, len(p.Goals))
	for i := range p.Goals {
		goals = append(goals, toGoalResponse(&p.Goals[i]))
	}
	return phaseResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   formatTime(p.StartDate),
		EndDate:     formatTimePtr(p.EndDate),
		IsActive:    p.IsActive,
		Values:      nonNilStrings(p.Values),
		Goals:       goals,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toPhaseResponses(ps []*model.LifePhase) []phaseResponse {
	out := make([]phaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPhaseResponse(p))
	}
	return out
}

// exportResponse はエクスポートファイルの内容。
type exportResponse struct {
	ExportedAt     string                  `json:"exportedAt"`
	Decisions      []decisionResponse      `json:"decisions"`
	JournalEntries []journalResponse       `json:"journalEntries"`
	LifePhases     []phaseResponse         `json:"lifePhases"`
	PrivateProfile *privateProfileResponse `json:"privateProfile"`
}

func toExportResponse(s *model.ExportSnapshot) exportResponse {
	return exportResponse{
		ExportedAt:     formatTime(s.ExportedAt),
		Decisions:      toDecisionResponses(s.Decisions),
		JournalEntries: toJournalResponses(s.JournalEntries),
		LifePhases:     toPhaseResponses(s.LifePhases),
		PrivateProfile: toPrivateProfileResponse(s.PrivateProfile),
	}
}
