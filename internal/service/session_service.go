package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"aptitude-service/internal/adaptive"
	"aptitude-service/internal/models"
	"aptitude-service/internal/selection"

	"go.mongodb.org/mongo-driver/mongo"
)

// adaptivePrefetch is how many adaptive-core questions are fetched when the
// phase opens; the rest of the phase is served one pick at a time so each
// question tracks the current difficulty.
const adaptivePrefetch = 5

// Store interfaces cover exactly the repository methods the service calls,
// so tests can swap in in-memory fakes.

type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	UpdateVersioned(ctx context.Context, session *models.Session) error
	FindInProgressByStudent(ctx context.Context, studentID string) (*models.Session, error)
}

type ResponseStore interface {
	Create(ctx context.Context, response *models.Response) error
	FindBySession(ctx context.Context, sessionID string) ([]models.Response, error)
}

type ResultStore interface {
	Create(ctx context.Context, result *models.TestResults) error
	FindBySession(ctx context.Context, sessionID string) (*models.TestResults, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.TestResults, error)
}

type Picker interface {
	Pick(ctx context.Context, req selection.Request) (*selection.Outcome, error)
	PickBatch(ctx context.Context, req selection.Request, count int) ([]models.Question, []string, error)
}

type SessionService struct {
	Sessions  SessionStore
	Responses ResponseStore
	Results   ResultStore
	Picker    Picker
	engine    *adaptive.Engine
}

func NewSessionService(
	sessions SessionStore,
	responses ResponseStore,
	results ResultStore,
	picker Picker,
	engine *adaptive.Engine,
) *SessionService {
	if engine == nil {
		engine = adaptive.NewEngine(nil)
	}
	return &SessionService{
		Sessions:  sessions,
		Responses: responses,
		Results:   results,
		Picker:    picker,
		engine:    engine,
	}
}

type InitializeResult struct {
	Session       *models.Session  `json:"session"`
	FirstQuestion *models.Question `json:"first_question"`
	Warnings      []string         `json:"warnings,omitempty"`
}

type Progress struct {
	QuestionsAnswered int     `json:"questions_answered"`
	TotalQuestions    int     `json:"total_questions"`
	PercentComplete   float64 `json:"percent_complete"`
}

type NextQuestionView struct {
	Question       *models.Question `json:"question"`
	IsTestComplete bool             `json:"is_test_complete"`
	CurrentPhase   string           `json:"current_phase"`
	Progress       Progress         `json:"progress"`
}

type SubmitAnswerInput struct {
	SessionID      string `json:"session_id"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	ResponseTimeMs int    `json:"response_time_ms"`
}

type SubmitAnswerResult struct {
	IsCorrect          bool            `json:"is_correct"`
	PreviousDifficulty int             `json:"previous_difficulty"`
	NewDifficulty      int             `json:"new_difficulty"`
	DifficultyChange   string          `json:"difficulty_change"`
	PhaseComplete      bool            `json:"phase_complete"`
	NextPhase          string          `json:"next_phase,omitempty"`
	TestComplete       bool            `json:"test_complete"`
	StopCondition      adaptive.Stop   `json:"stop_condition"`
	UpdatedSession     *models.Session `json:"updated_session"`
}

type ResumeView struct {
	Session         *models.Session  `json:"session"`
	CurrentQuestion *models.Question `json:"current_question"`
	Progress        Progress         `json:"progress"`
}

// Initialize creates a session in the diagnostic screener with a
// pre-fetched question batch at the neutral starting difficulty.
func (s *SessionService) Initialize(ctx context.Context, studentID string, gradeLevel int) (*InitializeResult, error) {
	if studentID == "" {
		return nil, fmt.Errorf("%w: studentId is required", ErrValidation)
	}
	if gradeLevel < 1 || gradeLevel > 12 {
		return nil, fmt.Errorf("%w: gradeLevel must be between 1 and 12", ErrValidation)
	}

	cfg := s.engine.Config()
	now := time.Now()
	session := &models.Session{
		StudentID:         studentID,
		GradeLevel:        gradeLevel,
		CurrentPhase:      models.PhaseDiagnostic,
		CurrentDifficulty: cfg.StartingDifficulty,
		DifficultyPath:    []int{},
		Status:            models.StatusInProgress,
		StartedAt:         now,
		UpdatedAt:         now,
	}

	batch, warnings, err := s.Picker.PickBatch(ctx, selection.Request{
		GradeLevel: gradeLevel,
		Difficulty: cfg.StartingDifficulty,
		Phase:      models.PhaseDiagnostic,
	}, cfg.DiagnosticQuestions)
	if err != nil {
		return nil, err
	}
	session.CurrentPhaseQuestions = batch

	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	log.Printf("[SessionService] Initialized session %s for student %s (grade %d)",
		session.ID, studentID, gradeLevel)

	return &InitializeResult{
		Session:       session,
		FirstQuestion: &session.CurrentPhaseQuestions[0],
		Warnings:      warnings,
	}, nil
}

// NextQuestion returns the question the session should serve next. During
// the adaptive core the pre-fetched batch can run out mid-phase; missing
// questions are picked on demand at the current difficulty.
func (s *SessionService) NextQuestion(ctx context.Context, userID, sessionID string) (*NextQuestionView, error) {
	session, err := s.getOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	view := &NextQuestionView{
		CurrentPhase: session.CurrentPhase,
		Progress:     s.progressOf(session),
	}
	if session.Terminal() || session.CurrentPhase == models.PhaseCompleted {
		view.IsTestComplete = true
		return view, nil
	}

	if session.CurrentQuestionIndex < len(session.CurrentPhaseQuestions) {
		view.Question = &session.CurrentPhaseQuestions[session.CurrentQuestionIndex]
		return view, nil
	}

	outcome, err := s.Picker.Pick(ctx, s.pickRequest(ctx, session, session.CurrentDifficulty))
	if err != nil {
		return nil, err
	}
	session.CurrentPhaseQuestions = append(session.CurrentPhaseQuestions, *outcome.Question)
	if err := s.Sessions.UpdateVersioned(ctx, session); err != nil {
		return nil, err
	}

	view.Question = &session.CurrentPhaseQuestions[len(session.CurrentPhaseQuestions)-1]
	return view, nil
}

// SubmitAnswer is the only operation that advances the state machine. The
// session row is read fully, mutated through the engine, and written back
// under a version guard, so a concurrent double-submit loses cleanly.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID string, in SubmitAnswerInput) (*SubmitAnswerResult, error) {
	if !models.IsValidAnswer(in.SelectedAnswer) {
		return nil, fmt.Errorf("%w: selectedAnswer must be one of A, B, C, D", ErrValidation)
	}
	if in.ResponseTimeMs < 0 {
		return nil, fmt.Errorf("%w: responseTimeMs must not be negative", ErrValidation)
	}

	session, err := s.getOwnedSession(ctx, in.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := activeOnly(session); err != nil {
		return nil, err
	}

	// Only the question currently being served is answerable. Batch entries
	// below the index are already answered, so a client retry of a lost
	// response cannot record the same question twice.
	idx := batchIndex(session, in.QuestionID)
	if idx < 0 || idx != session.CurrentQuestionIndex {
		return nil, ErrQuestionNotInPhase
	}
	question := &session.CurrentPhaseQuestions[idx]
	isCorrect := in.SelectedAnswer == question.CorrectAnswer

	response := &models.Response{
		SessionID:      session.ID,
		QuestionID:     question.ID,
		SelectedAnswer: in.SelectedAnswer,
		IsCorrect:      isCorrect,
		ResponseTimeMs: in.ResponseTimeMs,
		// Prefetched questions may trail the session difficulty, so the
		// response carries the difficulty the question was authored at.
		DifficultyAtTime: question.Difficulty,
		Subtag:           question.Subtag,
		Phase:            session.CurrentPhase,
		SequenceNumber:   session.QuestionsAnswered + 1,
		QuestionText:     question.Text,
		Options:          question.Options,
		CorrectAnswer:    question.CorrectAnswer,
		Explanation:      question.Explanation,
		AnsweredAt:       time.Now(),
	}

	history, err := s.Responses.FindBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	history = append(history, *response)

	state := examState(session)
	outcome, err := s.engine.ProcessAnswer(state, isCorrect, history)
	if err != nil {
		return nil, err
	}
	applyState(session, state)
	session.CurrentQuestionIndex++

	if outcome.PhaseComplete && !outcome.TestComplete {
		if err := s.openNextPhase(ctx, session, outcome, history); err != nil {
			return nil, err
		}
	}

	// The guarded session write commits the answer; the response row is
	// inserted only once the guard holds, keeping sequence numbers unique.
	if err := s.Sessions.UpdateVersioned(ctx, session); err != nil {
		return nil, err
	}
	if err := s.Responses.Create(ctx, response); err != nil {
		return nil, err
	}

	return &SubmitAnswerResult{
		IsCorrect:          outcome.IsCorrect,
		PreviousDifficulty: outcome.PreviousDifficulty,
		NewDifficulty:      outcome.NewDifficulty,
		DifficultyChange:   string(outcome.Direction),
		PhaseComplete:      outcome.PhaseComplete,
		NextPhase:          string(outcome.NextPhase),
		TestComplete:       outcome.TestComplete,
		StopCondition:      outcome.Stop,
		UpdatedSession:     session,
	}, nil
}

// openNextPhase seeds the upcoming phase: tier classification and a fresh
// batch after the screener, a provisional-band batch before stability.
func (s *SessionService) openNextPhase(ctx context.Context, session *models.Session, outcome *adaptive.AnswerOutcome, history []models.Response) error {
	cfg := s.engine.Config()

	var seed, count int
	switch outcome.NextPhase {
	case adaptive.PhaseAdaptive:
		tier, start := s.engine.ClassifyTier(phaseResponses(history, models.PhaseDiagnostic))
		session.Tier = string(tier)
		seed, count = start, adaptivePrefetch
		log.Printf("[SessionService] Session %s classified %s, adaptive core starts at difficulty %d",
			session.ID, tier, start)
	case adaptive.PhaseStability:
		seed = session.ProvisionalBand
		if seed == 0 {
			seed = session.CurrentDifficulty
		}
		count = cfg.StabilityQuestions
	default:
		return nil
	}

	batch, warnings, err := s.Picker.PickBatch(ctx, s.pickRequestAt(ctx, session, seed, string(outcome.NextPhase), history), count)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("[SessionService] Session %s batch warning: %s", session.ID, w)
	}

	session.CurrentDifficulty = seed
	session.CurrentPhaseQuestions = batch
	session.CurrentQuestionIndex = 0
	return nil
}

// Complete finalizes a session whose phases are all done: analytics,
// confidence tag and aptitude level are derived once and persisted.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID string) (*models.TestResults, error) {
	session, err := s.getOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := activeOnly(session); err != nil {
		return nil, err
	}
	if session.CurrentPhase != models.PhaseCompleted {
		return nil, ErrSessionNotFinished
	}

	history, err := s.Responses.FindBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := &models.TestResults{
		SessionID:             session.ID,
		StudentID:             session.StudentID,
		AptitudeLevel:         s.engine.AptitudeLevel(session.DifficultyPath, session.ProvisionalBand),
		ConfidenceTag:         string(s.engine.DetermineConfidenceTag(session.DifficultyPath, history)),
		Tier:                  session.Tier,
		TotalQuestions:        session.QuestionsAnswered,
		CorrectAnswers:        session.CorrectAnswers,
		AccuracyByDifficulty:  adaptive.AccuracyByDifficulty(history),
		AccuracyBySubtag:      adaptive.AccuracyBySubtag(history),
		DifficultyPath:        session.DifficultyPath,
		PathClassification:    string(s.engine.ClassifyPath(session.DifficultyPath)),
		AverageResponseTimeMs: adaptive.AverageResponseTimeMs(history),
		CompletedAt:           now,
	}

	session.Status = models.StatusCompleted
	session.CompletedAt = &now
	if err := s.Sessions.UpdateVersioned(ctx, session); err != nil {
		return nil, err
	}
	if err := s.Results.Create(ctx, results); err != nil {
		return nil, err
	}
	log.Printf("[SessionService] Session %s completed: aptitude level %d (%s confidence)",
		session.ID, results.AptitudeLevel, results.ConfidenceTag)
	return results, nil
}

// Abandon marks a session abandoned. Abandoning twice is a no-op;
// abandoning a completed session is an error.
func (s *SessionService) Abandon(ctx context.Context, userID, sessionID string) error {
	session, err := s.getOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session.Status == models.StatusCompleted {
		return ErrSessionCompleted
	}
	if session.Status == models.StatusAbandoned {
		return nil
	}
	session.Status = models.StatusAbandoned
	return s.Sessions.UpdateVersioned(ctx, session)
}

// Resume returns the session and its pending question without mutating
// anything, so a reconnecting client can continue where it left off.
func (s *SessionService) Resume(ctx context.Context, userID, sessionID string) (*ResumeView, error) {
	session, err := s.getOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	view := &ResumeView{Session: session, Progress: s.progressOf(session)}
	if !session.Terminal() && session.CurrentQuestionIndex < len(session.CurrentPhaseQuestions) {
		view.CurrentQuestion = &session.CurrentPhaseQuestions[session.CurrentQuestionIndex]
	}
	return view, nil
}

func (s *SessionService) FindInProgress(ctx context.Context, userID, studentID string) (*models.Session, error) {
	if userID != "" && userID != studentID {
		return nil, ErrOwnership
	}
	session, err := s.Sessions.FindInProgressByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// PublicProgress is the unauthenticated progress view: counters only, no
// questions, answers or keys.
func (s *SessionService) PublicProgress(ctx context.Context, sessionID string) (map[string]interface{}, error) {
	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	progress := s.progressOf(session)
	return map[string]interface{}{
		"session_id":         session.ID,
		"status":             session.Status,
		"current_phase":      session.CurrentPhase,
		"questions_answered": progress.QuestionsAnswered,
		"total_questions":    progress.TotalQuestions,
		"percent_complete":   progress.PercentComplete,
	}, nil
}

func (s *SessionService) getOwnedSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if userID != "" && session.StudentID != userID {
		return nil, ErrOwnership
	}
	return session, nil
}

func (s *SessionService) progressOf(session *models.Session) Progress {
	total := s.engine.Config().MaxTotalQuestions()
	return Progress{
		QuestionsAnswered: session.QuestionsAnswered,
		TotalQuestions:    total,
		PercentComplete:   float64(session.QuestionsAnswered) / float64(total) * 100,
	}
}

// pickRequest builds a selection request excluding everything the session
// has already seen, queued or answered.
func (s *SessionService) pickRequest(ctx context.Context, session *models.Session, difficulty int) selection.Request {
	history, err := s.Responses.FindBySession(ctx, session.ID)
	if err != nil {
		log.Printf("[SessionService] History lookup failed for session %s, excluding queued questions only: %v",
			session.ID, err)
	}
	return s.pickRequestAt(ctx, session, difficulty, session.CurrentPhase, history)
}

func (s *SessionService) pickRequestAt(_ context.Context, session *models.Session, difficulty int, phase string, history []models.Response) selection.Request {
	ids, texts := session.SeenQuestionKeys()
	for i := range history {
		ids = append(ids, history[i].QuestionID)
		texts = append(texts, models.NormalizeText(history[i].QuestionText))
	}
	return selection.Request{
		GradeLevel:   session.GradeLevel,
		Difficulty:   difficulty,
		Phase:        phase,
		ExcludeIDs:   ids,
		ExcludeTexts: texts,
	}
}

func activeOnly(session *models.Session) error {
	switch session.Status {
	case models.StatusCompleted:
		return ErrSessionCompleted
	case models.StatusAbandoned:
		return ErrSessionAbandoned
	}
	return nil
}

func batchIndex(session *models.Session, questionID string) int {
	for i := range session.CurrentPhaseQuestions {
		if session.CurrentPhaseQuestions[i].ID == questionID {
			return i
		}
	}
	return -1
}

func phaseResponses(history []models.Response, phase string) []models.Response {
	var out []models.Response
	for _, r := range history {
		if r.Phase == phase {
			out = append(out, r)
		}
	}
	return out
}

func examState(session *models.Session) *adaptive.ExamState {
	return &adaptive.ExamState{
		SessionID:         session.ID,
		Phase:             adaptive.Phase(session.CurrentPhase),
		CurrentDifficulty: session.CurrentDifficulty,
		DifficultyPath:    session.DifficultyPath,
		QuestionsAnswered: session.QuestionsAnswered,
		CorrectAnswers:    session.CorrectAnswers,
		ProvisionalBand:   session.ProvisionalBand,
		Tier:              adaptive.Tier(session.Tier),
		StopMet:           session.StopConditionMet,
		StopReason:        session.StopConditionReason,
	}
}

func applyState(session *models.Session, state *adaptive.ExamState) {
	session.CurrentPhase = string(state.Phase)
	session.CurrentDifficulty = state.CurrentDifficulty
	session.DifficultyPath = state.DifficultyPath
	session.QuestionsAnswered = state.QuestionsAnswered
	session.CorrectAnswers = state.CorrectAnswers
	session.ProvisionalBand = state.ProvisionalBand
	session.StopConditionMet = state.StopMet
	session.StopConditionReason = state.StopReason
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, ErrSessionNotFound)
}
