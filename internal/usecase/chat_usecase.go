package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/intent"
)

// ChatMessage is one turn of a consultation session, either side.
type ChatMessage struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatReply struct {
	Response  string
	SessionID string
	CreatedAt time.Time
}

type ChatUsecase interface {
	Message(ctx context.Context, sessionID, text string) (*ChatReply, error)
	History(ctx context.Context, sessionID string) ([]ChatMessage, error)
	ClearHistory(ctx context.Context, sessionID string) error
	Suggestions() []string
}

// ChatHistoryStore keeps per-session transcripts. The Redis cache
// implements it; sessions expire on their own instead of being swept.
type ChatHistoryStore interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type DefaultChatUsecase struct {
	retriever listingRetriever
	gateway   narrator
	store     ChatHistoryStore
	logger    *log.Logger

	sessionTTL time.Duration
	now        func() time.Time
}

func NewChatUsecase(
	r listingRetriever,
	gateway narrator,
	store ChatHistoryStore,
	logger *log.Logger,
) *DefaultChatUsecase {
	return &DefaultChatUsecase{
		retriever:  r,
		gateway:    gateway,
		store:      store,
		logger:     logger,
		sessionTTL: 24 * time.Hour,
		now:        time.Now,
	}
}

const chatPromptFormat = `Bạn là trợ lý AI thân thiện của một hệ thống bất động sản tại Hà Nội.

Quy tắc:
- Luôn trả lời bằng tiếng Việt, thân thiện và dễ hiểu
- Khi có context BĐS, ưu tiên dựa vào dữ liệu thực
- Nếu không chắc chắn, hãy thừa nhận và đề xuất cách tìm thêm
- Giữ câu trả lời ngắn gọn (2-3 đoạn văn)

Context từ database BĐS (nếu có):
%s

Lịch sử hội thoại:
%s

Câu hỏi của người dùng: %s

Trả về CHÍNH XÁC JSON format (không có text khác):
{
    "response": "câu trả lời của bạn"
}`

type chatOutput struct {
	Response string `json:"response"`
}

// historyKeep bounds how much transcript a session accumulates; the
// prompt only ever sees the trailing promptHistory turns of it.
const (
	historyKeep   = 50
	promptHistory = 5
	contextTopK   = 3
)

// Message answers one user turn. Listing context comes from the
// retriever when the question looks like a property question; a failed
// context lookup degrades to an answer without data, never an error.
func (u *DefaultChatUsecase) Message(ctx context.Context, sessionID, text string) (*ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history, err := u.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(chatPromptFormat,
		u.listingContext(ctx, text),
		formatChatHistory(history),
		text,
	)

	var out chatOutput
	meta, err := u.gateway.Infer(ctx, prompt, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if u.logger != nil {
		u.logger.Printf("[Chat] reply | session=%s provider=%s history=%d", sessionID, meta.Provider, len(history))
	}

	now := u.now()
	history = append(history,
		ChatMessage{Role: "user", Message: text, CreatedAt: now},
		ChatMessage{Role: "assistant", Message: out.Response, CreatedAt: now},
	)
	if len(history) > historyKeep {
		history = history[len(history)-historyKeep:]
	}
	if err := u.store.SetJSON(ctx, chatSessionKey(sessionID), history, u.sessionTTL); err != nil && u.logger != nil {
		u.logger.Printf("[Chat] history write failed | session=%s err=%v", sessionID, err)
	}

	return &ChatReply{Response: out.Response, SessionID: sessionID, CreatedAt: now}, nil
}

func (u *DefaultChatUsecase) History(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	var history []ChatMessage
	if _, err := u.store.GetJSON(ctx, chatSessionKey(sessionID), &history); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return history, nil
}

func (u *DefaultChatUsecase) ClearHistory(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if err := u.store.Delete(ctx, chatSessionKey(sessionID)); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

func (u *DefaultChatUsecase) Suggestions() []string {
	return []string{
		"Tôi có 5 tỷ, nên mua nhà ở quận nào?",
		"Sổ hồng và sổ đỏ khác nhau như thế nào?",
		"Giá nhà ở Cầu Giấy hiện tại ra sao?",
		"So sánh Thanh Xuân và Đống Đa",
		"Chung cư 2 phòng ngủ giá bao nhiêu?",
	}
}

const noListingContext = "Không có dữ liệu BĐS liên quan."

var propertyKeywords = []string{
	"nhà", "bds", "bất động sản", "chung cư", "căn hộ",
	"giá", "mua", "bán", "quận", "phòng", "tỷ",
}

func (u *DefaultChatUsecase) listingContext(ctx context.Context, text string) string {
	lower := strings.ToLower(text)
	property := false
	for _, kw := range propertyKeywords {
		if strings.Contains(lower, kw) {
			property = true
			break
		}
	}
	if !property {
		return noListingContext
	}

	results, err := u.retriever.Search(ctx, intent.Filters{}, text, contextTopK)
	if err != nil {
		if u.logger != nil {
			u.logger.Printf("[Chat] context lookup failed | err=%v", err)
		}
		return noListingContext
	}
	if len(results) == 0 {
		return "Không tìm thấy dữ liệu BĐS phù hợp trong hệ thống."
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n   - Giá: %s\n   - Diện tích: %.0f m²\n   - Quận: %s\n   - Loại: %s",
			i+1, r.Title, r.PriceText, r.AreaM2, r.District, r.PropertyType)
	}
	return b.String()
}

func formatChatHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return "Chưa có lịch sử hội thoại."
	}
	if len(history) > promptHistory {
		history = history[len(history)-promptHistory:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := "Trợ lý"
		if m.Role == "user" {
			role = "Người dùng"
		}
		lines = append(lines, role+": "+m.Message)
	}
	return strings.Join(lines, "\n")
}

func chatSessionKey(sessionID string) string {
	return "chat:session:" + sessionID
}
