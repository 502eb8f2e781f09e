package layout

import (
	"fmt"
	"strconv"
	"strings"

	"yahoo-comments-scraper/internal/scraper"
)

// Orientation — как регион статьи ложится на лист
type Orientation string

const (
	// Одна строка на статью, поля идут по колонкам
	RowPerArticle Orientation = "rows"
	// Одна колонка на статью, поля идут по строкам
	ColumnPerArticle Orientation = "columns"
)

// CommentCells — как комментарий ложится в ячейки
type CommentCells string

const (
	// Три ячейки подряд: текст, время, автор
	CommentsSplit CommentCells = "split"
	// Одна ячейка: текст, под ним время и автор
	CommentsMerged CommentCells = "merged"
)

// ErrorMarker — метка ошибки в регионе статьи
const ErrorMarker = "error"

// Фиксированные позиции полей внутри региона (с 1)
const (
	offsetSeq   = 1
	offsetTitle = 2
	offsetURL   = 3
	offsetDate  = 4
	offsetBody  = 5
)

const (
	DefaultBodySlots = 10
)

const (
	headerSeq          = "番号"
	headerTitle        = "タイトル"
	headerURL          = "URL"
	headerDate         = "公開日時"
	headerBodyFmt      = "本文%d"
	headerCommentCount = "コメント数"
	headerComments     = "コメント"
	headerCommentText  = "コメント本文"
	headerCommentTime  = "投稿日時"
	headerCommentUser  = "ユーザー名"
)

type Schema struct {
	Orientation    Orientation  `yaml:"orientation"`
	BodySlots      int          `yaml:"body_slots"`
	CommentCountAt int          `yaml:"comment_count_at"`
	CommentStart   int          `yaml:"comment_start"`
	CommentCells   CommentCells `yaml:"comment_cells"`
}

// WithDefaults заполняет нулевые поля: 10 слотов текста, счётчик сразу
// за ними, комментарии со следующей позиции
func (s Schema) WithDefaults() Schema {
	if s.Orientation == "" {
		s.Orientation = RowPerArticle
	}
	if s.BodySlots <= 0 {
		s.BodySlots = DefaultBodySlots
	}
	if s.CommentCountAt <= 0 {
		s.CommentCountAt = offsetBody + s.BodySlots
	}
	if s.CommentStart <= 0 {
		s.CommentStart = s.CommentCountAt + 1
	}
	if s.CommentCells == "" {
		s.CommentCells = CommentsSplit
	}
	return s
}

func (s Schema) Validate() error {
	if s.Orientation != RowPerArticle && s.Orientation != ColumnPerArticle {
		return fmt.Errorf("layout.orientation must be 'rows' or 'columns', got %q", s.Orientation)
	}
	if s.BodySlots <= 0 {
		return fmt.Errorf("layout.body_slots must be > 0")
	}
	lastBody := offsetBody + s.BodySlots - 1
	if s.CommentCountAt <= lastBody {
		return fmt.Errorf("layout.comment_count_at (%d) overlaps body slots (up to %d)", s.CommentCountAt, lastBody)
	}
	if s.CommentStart <= s.CommentCountAt {
		return fmt.Errorf("layout.comment_start (%d) must be after comment_count_at (%d)", s.CommentStart, s.CommentCountAt)
	}
	if s.CommentCells != CommentsSplit && s.CommentCells != CommentsMerged {
		return fmt.Errorf("layout.comment_cells must be 'split' or 'merged', got %q", s.CommentCells)
	}
	return nil
}

// Entry — результат обработки одного URL
type Entry struct {
	// Порядковый номер URL во входном списке, с 1
	Index       int
	URL         string
	Article     *scraper.ArticleRecord
	Comments    scraper.CommentThread
	Err         error
	CommentsErr error
}

// Build раскладывает записи по фиксированной геометрии листа.
// Заголовок занимает первую строку (или колонку), статья с номером i — i+1.
func Build(entries []Entry, schema Schema) (*Grid, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	g := NewGrid()
	put := placer(g, schema.Orientation)

	writeHeader(put, schema)

	for _, e := range entries {
		if e.Index <= 0 {
			return nil, fmt.Errorf("entry %q: index %d: %w", e.URL, e.Index, ErrInvalidArgument)
		}
		writeEntry(put, schema, e)
	}

	return g, nil
}

type putFunc func(region, offset int, value string)

func placer(g *Grid, o Orientation) putFunc {
	if o == ColumnPerArticle {
		return func(region, offset int, value string) { g.Set(offset, region, value) }
	}
	return func(region, offset int, value string) { g.Set(region, offset, value) }
}

func writeHeader(put putFunc, s Schema) {
	const region = 1

	put(region, offsetSeq, headerSeq)
	put(region, offsetTitle, headerTitle)
	put(region, offsetURL, headerURL)
	put(region, offsetDate, headerDate)
	for i := 0; i < s.BodySlots; i++ {
		put(region, offsetBody+i, fmt.Sprintf(headerBodyFmt, i+1))
	}
	put(region, s.CommentCountAt, headerCommentCount)
	if s.CommentCells == CommentsMerged {
		put(region, s.CommentStart, headerComments)
		return
	}
	// Подписи только над первым комментарием, дальше шаг тот же
	put(region, s.CommentStart, headerCommentText)
	put(region, s.CommentStart+1, headerCommentTime)
	put(region, s.CommentStart+2, headerCommentUser)
}

func writeEntry(put putFunc, s Schema, e Entry) {
	region := e.Index + 1

	put(region, offsetSeq, strconv.Itoa(e.Index))
	put(region, offsetURL, e.URL)

	switch {
	case e.Err != nil:
		put(region, offsetTitle, errorText(e.Err))
		put(region, offsetDate, "")
		for i := 0; i < s.BodySlots; i++ {
			put(region, offsetBody+i, "")
		}
	case e.Article != nil:
		put(region, offsetTitle, e.Article.Title)
		put(region, offsetDate, e.Article.PublishedAt)
		// Лишние страницы молча отбрасываются, недостающие — пустые ячейки
		for i := 0; i < s.BodySlots; i++ {
			value := ""
			if i < len(e.Article.BodyPages) {
				value = e.Article.BodyPages[i]
			}
			put(region, offsetBody+i, value)
		}
	}

	if e.CommentsErr != nil {
		put(region, s.CommentCountAt, ErrorMarker)
		put(region, s.CommentStart, errorText(e.CommentsErr))
		return
	}

	comments := e.Comments
	if len(comments) == 0 {
		comments = scraper.EmptyThread()
	}

	put(region, s.CommentCountAt, strconv.Itoa(comments.Count()))
	for i, c := range comments {
		if s.CommentCells == CommentsMerged {
			put(region, s.CommentStart+i, CommentCell(c))
			continue
		}
		base := s.CommentStart + i*s.CommentStride()
		put(region, base, c.Text)
		put(region, base+1, c.Posted())
		put(region, base+2, c.Author)
	}
}

// CommentStride — сколько ячеек занимает один комментарий
func (s Schema) CommentStride() int {
	if s.CommentCells == CommentsMerged {
		return 1
	}
	return 3
}

// CommentCell — текст комментария, под ним время и автор (режим merged)
func CommentCell(c scraper.CommentRecord) string {
	meta := strings.TrimSpace(c.Posted() + " " + c.Author)
	if meta == "" {
		return c.Text
	}
	return c.Text + "\n" + meta
}

func errorText(err error) string {
	return ErrorMarker + ": " + err.Error()
}
