package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/models"
	"pdf-quiz/internal/parser"
	"pdf-quiz/internal/quiz"
	"pdf-quiz/internal/rag"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingFile   = errors.New("no file uploaded")
	ErrNotPDF        = errors.New("only PDF files are accepted")
	ErrFileTooLarge  = errors.New("file is too large")
	ErrInvalidNumber = errors.New("must be a positive integer")
)

const (
	questionsKey = "questions"
	answersKey   = "answers"

	flashSuccess = "success"
	flashError   = "error"
)

// Pipeline turns an uploaded document into questions.
type Pipeline interface {
	Process(ctx context.Context, u rag.Upload) ([]models.Question, error)
}

type Handler struct {
	pipeline  Pipeline
	uploadDir string
	pages     *pages
}

func NewHandler(pipeline Pipeline, uploadDir string) (*Handler, error) {
	if err := helper.CreateFolder(uploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Handler{pipeline: pipeline, uploadDir: uploadDir, pages: p}, nil
}

type flashes struct {
	Success []interface{}
	Error   []interface{}
}

// takeFlashes pops pending messages and saves the session.
func takeFlashes(session sessions.Session) flashes {
	f := flashes{
		Success: session.Flashes(flashSuccess),
		Error:   session.Flashes(flashError),
	}
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
	}
	return f
}

// HandleIndex renders the upload form.
func (h *Handler) HandleIndex(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "index", gin.H{"Flashes": takeFlashes(sessions.Default(c))})
}

// HandleUpload saves the uploaded PDF, runs the pipeline and stores the
// questions in the session.
func (h *Handler) HandleUpload(c *gin.Context) {
	session := sessions.Default(c)

	upload, err := h.saveUpload(c)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected upload")
		h.pages.render(c, http.StatusBadRequest, "index", gin.H{
			"Flashes": flashes{Error: []interface{}{err.Error()}},
		})
		return
	}
	defer func() {
		if err := os.Remove(upload.Path); err != nil {
			log.Warn().Err(err).Str("path", upload.Path).Msg("Failed to remove upload")
		}
	}()

	questions, err := h.pipeline.Process(c.Request.Context(), upload)
	switch {
	case errors.Is(err, quiz.ErrGenerationExhausted):
		log.Error().Err(err).Str("file", upload.Name).Msg("Question generation exhausted")
		session.AddFlash(fmt.Sprintf("Error generating questions: %v", err), flashError)
		h.saveSession(session)
		c.Redirect(http.StatusSeeOther, "/")
		return
	case err != nil:
		log.Error().Err(err).Str("file", upload.Name).Msg("Failed to process upload")
		h.pages.render(c, http.StatusBadGateway, "index", gin.H{
			"Flashes": flashes{Error: []interface{}{fmt.Sprintf("Error generating questions: %v", err)}},
		})
		return
	}

	session.Set(questionsKey, questions)
	session.Delete(answersKey)
	session.AddFlash("PDF processed and embeddings stored successfully.", flashSuccess)
	h.saveSession(session)
	c.Redirect(http.StatusSeeOther, "/quiz")
}

func (h *Handler) saveUpload(c *gin.Context) (rag.Upload, error) {
	header, err := c.FormFile("pdf")
	if mbe := (*http.MaxBytesError)(nil); errors.As(err, &mbe) {
		return rag.Upload{}, fmt.Errorf("%w (limit %d MB)", ErrFileTooLarge, mbe.Limit>>20)
	}
	if err != nil || header.Filename == "" {
		return rag.Upload{}, ErrMissingFile
	}
	if !parser.IsPDF(header.Filename) {
		return rag.Upload{}, ErrNotPDF
	}

	chunkSize, err := optionalInt(c.PostForm("chunk_size"))
	if err != nil {
		return rag.Upload{}, fmt.Errorf("chunk_size %w", err)
	}
	numQuestions, err := optionalInt(c.PostForm("num_questions"))
	if err != nil {
		return rag.Upload{}, fmt.Errorf("num_questions %w", err)
	}

	name := helper.SecureFilename(header.Filename)
	id, err := helper.GenerateUUID()
	if err != nil {
		return rag.Upload{}, err
	}
	path := filepath.Join(h.uploadDir, id+"_"+name)
	if err := c.SaveUploadedFile(header, path); err != nil {
		return rag.Upload{}, fmt.Errorf("failed to save upload: %w", err)
	}
	log.Info().Str("file", name).Str("path", path).Int64("bytes", header.Size).Msg("Saved upload")

	return rag.Upload{
		Path:         path,
		Name:         name,
		ChunkSize:    chunkSize,
		NumQuestions: numQuestions,
		Topic:        strings.TrimSpace(c.PostForm("topic")),
	}, nil
}

// optionalInt parses a form number; empty means "use the default" and
// yields 0.
func optionalInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

// HandleQuiz renders the questions stored in the session.
func (h *Handler) HandleQuiz(c *gin.Context) {
	session := sessions.Default(c)
	h.pages.render(c, http.StatusOK, "quiz", gin.H{
		"Questions": sessionQuestions(session),
		"Flashes":   takeFlashes(session),
	})
}

// HandleSubmit records answers q0..q{n-1}.
func (h *Handler) HandleSubmit(c *gin.Context) {
	session := sessions.Default(c)
	questions := sessionQuestions(session)

	answers := make([]string, len(questions))
	for i := range questions {
		answers[i] = c.PostForm("q" + strconv.Itoa(i))
	}
	session.Set(answersKey, answers)
	h.saveSession(session)
	c.Redirect(http.StatusSeeOther, "/results")
}

func (h *Handler) HandleResults(c *gin.Context) {
	session := sessions.Default(c)
	answers, _ := session.Get(answersKey).([]string)
	result := quiz.Score(sessionQuestions(session), answers)
	log.Info().Int("score", result.Score).Int("total", result.Total).Msg("Scored quiz")
	h.pages.render(c, http.StatusOK, "results", gin.H{"Result": result})
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func sessionQuestions(session sessions.Session) []models.Question {
	questions, _ := session.Get(questionsKey).([]models.Question)
	return questions
}

func (h *Handler) saveSession(session sessions.Session) {
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
	}
}
