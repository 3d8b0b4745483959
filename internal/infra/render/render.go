// Package render turns transcripts, query plans and bookings into terminal
// text. Styled output uses lipgloss; plain output is used for chat
// transports such as Telegram.
package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/usecase"
)

const suggestionMaxRunes = 50

type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	errorMsg  lipgloss.Style
	badge     lipgloss.Style
	badgeAlt  lipgloss.Style
	card      lipgloss.Style
	plan      lipgloss.Style
	notice    lipgloss.Style
	noticeBad lipgloss.Style
}

func newStyles(styled bool) styles {
	if !styled {
		p := lipgloss.NewStyle()
		return styles{p, p, p, p, p, p, p, p, p, p, p}
	}
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35")),
		errorMsg:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		badge:     lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("33")).Padding(0, 1),
		badgeAlt:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("238")).Padding(0, 1),
		card:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		plan:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1),
		notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		noticeBad: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}

// Renderer formats domain values for a text surface.
type Renderer struct {
	tr     usecase.Translator
	styled bool
	st     styles
}

func New(tr usecase.Translator, styled bool) *Renderer {
	return &Renderer{tr: tr, styled: styled, st: newStyles(styled)}
}

// TruncateSuggestion shortens a suggestion label to 50 runes plus "...".
func TruncateSuggestion(s string) string {
	r := []rune(s)
	if len(r) <= suggestionMaxRunes {
		return s
	}
	return string(r[:suggestionMaxRunes]) + "..."
}

// FormatCurrency renders "CUR amount" with the shortest exact amount.
func FormatCurrency(amount float64, currency string) string {
	return currency + " " + strconv.FormatFloat(amount, 'f', -1, 64)
}

// Route renders "origin → destination"; places may be codes or cities.
func Route(f *model.Flight) string {
	if f == nil {
		return ""
	}
	return f.Origin.String() + " → " + f.Destination.String()
}

func (r *Renderer) StatusBadge(status string) string {
	if status == model.BookingStatusConfirmed {
		return r.st.badge.Render(status)
	}
	return r.st.badgeAlt.Render(status)
}

func (r *Renderer) Message(m model.Message) string {
	var sb strings.Builder
	switch m.Sender {
	case model.SenderUser:
		sb.WriteString(r.st.user.Render(r.tr.T("chat.sender_user") + ":"))
	default:
		sb.WriteString(r.st.assistant.Render(r.tr.T("chat.sender_assistant") + ":"))
	}
	sb.WriteString(" ")
	switch m.Kind {
	case model.KindError:
		sb.WriteString(r.st.errorMsg.Render(m.Content))
	case model.KindInterrupt:
		sb.WriteString(m.Content)
		sb.WriteString("\n")
		sb.WriteString(r.st.muted.Render(r.tr.T("chat.interrupt_hint")))
	default:
		sb.WriteString(m.Content)
	}
	if m.HasPlan() {
		sb.WriteString("\n")
		sb.WriteString(r.Plan(usecase.RenderQueryPlan(m.Plan, m.SubQueries, false)))
	}
	return sb.String()
}

func (r *Renderer) Transcript(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// Plan renders a query plan fragment; hidden fragments render as "".
func (r *Renderer) Plan(f usecase.PlanFragment) string {
	switch f.State {
	case usecase.PlanLoading:
		return r.st.muted.Render(r.tr.T("plan.loading"))
	case usecase.PlanShown:
	default:
		return ""
	}
	var sb strings.Builder
	sb.WriteString(r.st.title.Render(r.tr.T("plan.title")))
	sb.WriteString("\n")
	sb.WriteString(r.tr.T("plan.strategy"))
	sb.WriteString("\n")
	sb.WriteString(f.Plan)
	if len(f.Badges) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.tr.T("plan.aspects"))
		sb.WriteString("\n")
		badges := make([]string, 0, len(f.Badges))
		for _, b := range f.Badges {
			badges = append(badges, r.badgeText(b))
		}
		sb.WriteString(strings.Join(badges, " "))
	}
	return r.st.plan.Render(sb.String())
}

func (r *Renderer) badgeText(s string) string {
	if r.styled {
		return r.st.badgeAlt.Render(s)
	}
	return "[" + s + "]"
}

// Suggestions renders a numbered, truncated list under its heading.
func (r *Renderer) Suggestions(list []string) string {
	if len(list) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(r.st.muted.Render(r.tr.T("chat.suggestions_heading")))
	for i, s := range list {
		sb.WriteString("\n")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(TruncateSuggestion(s))
	}
	return sb.String()
}

func (r *Renderer) Notice(n model.Notice) string {
	st := r.st.notice
	if n.Variant == model.NoticeDestructive {
		st = r.st.noticeBad
	}
	return st.Render(n.Title) + ": " + n.Description
}

// CardSummary renders "N booking(s) • Total value: $X.XX".
func (r *Renderer) CardSummary(s model.AggregateSummary) string {
	noun := r.tr.T("bookings.bookings")
	if s.BookingCount == 1 {
		noun = r.tr.T("bookings.booking")
	}
	return r.tr.T("bookings.card_summary", s.BookingCount, noun, s.TotalValue)
}

func (r *Renderer) Card(c usecase.UserCard) string {
	agg := c.Aggregate
	var sb strings.Builder
	sb.WriteString(r.st.title.Render(agg.User.Name))
	sb.WriteString("\n")
	sb.WriteString(r.st.muted.Render(agg.User.Email))
	sb.WriteString("\n")
	sb.WriteString(r.CardSummary(c.Summary))

	if len(agg.Flights) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(r.tr.T("bookings.flights_title", len(agg.Flights)))
		for _, f := range agg.Flights {
			sb.WriteString("\n  ")
			sb.WriteString(r.tr.T("bookings.flight_booking"))
			sb.WriteString("  ")
			sb.WriteString(FormatCurrency(f.TotalPrice, f.Currency))
			sb.WriteString(" ")
			sb.WriteString(r.StatusBadge(f.Status))
			sb.WriteString("\n    ")
			sb.WriteString(r.st.muted.Render(r.tr.T("bookings.passenger", f.PassengerName) + " • " + r.tr.T("bookings.seat", f.SeatNumber)))
			sb.WriteString("\n    ")
			sb.WriteString(r.st.muted.Render(r.tr.T("bookings.ref", f.BookingReference)))
		}
	}
	if len(agg.Hotels) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(r.tr.T("bookings.hotels_title", len(agg.Hotels)))
		for _, h := range agg.Hotels {
			sb.WriteString("\n  ")
			sb.WriteString(r.tr.T("bookings.hotel_booking"))
			sb.WriteString("  ")
			sb.WriteString(FormatCurrency(h.TotalPrice, h.Currency))
			sb.WriteString(" ")
			sb.WriteString(r.StatusBadge(h.Status))
			sb.WriteString("\n    ")
			sb.WriteString(r.st.muted.Render(r.tr.T("bookings.guest", h.GuestName) + " • " + r.tr.T("bookings.stay", h.CheckInDate, h.CheckOutDate, h.NumberOfNights)))
			sb.WriteString("\n    ")
			sb.WriteString(r.st.muted.Render(r.tr.T("bookings.room_ref", h.RoomType, h.BookingReference)))
		}
	}
	return r.st.card.Render(sb.String())
}

// Page renders the bookings screen in its current mode.
func (r *Renderer) Page(v usecase.PageView) string {
	var sb strings.Builder
	sb.WriteString(r.st.title.Render(r.tr.T("bookings.title")))
	sb.WriteString("\n")
	if v.Mode == usecase.ModeSearch && v.Result != nil {
		sb.WriteString(r.SearchResult(v.Email, v.Result))
		return sb.String()
	}
	if v.Loading {
		sb.WriteString(r.st.muted.Render(r.tr.T("bookings.loading")))
		return sb.String()
	}
	if len(v.Cards) == 0 {
		sb.WriteString(r.st.muted.Render(r.tr.T("bookings.all_empty")))
		return sb.String()
	}
	sb.WriteString(r.st.muted.Render(r.tr.T("bookings.all_header", len(v.Cards), len(v.All.Flights), len(v.All.Hotels))))
	for _, c := range v.Cards {
		sb.WriteString("\n")
		sb.WriteString(r.Card(c))
	}
	return sb.String()
}

// SearchResult renders one user's bookings as flight and hotel tables.
func (r *Renderer) SearchResult(email string, res *model.UserBookings) string {
	var sb strings.Builder
	sb.WriteString(r.st.muted.Render(r.tr.T("bookings.detail_header", email)))
	if res.Empty() {
		sb.WriteString("\n")
		sb.WriteString(r.tr.T("bookings.user_empty"))
		return sb.String()
	}
	if len(res.FlightBookings) > 0 {
		rows := make([][]string, 0, len(res.FlightBookings))
		for _, f := range res.FlightBookings {
			var name, date string
			if f.Flight != nil {
				name = f.Flight.Airline + " " + f.Flight.FlightNumber
				date = f.Flight.FlightDate
			}
			rows = append(rows, []string{name, Route(f.Flight), date, f.SeatNumber, f.Status,
				FormatCurrency(f.TotalPrice, f.Currency), f.BookingReference})
		}
		sb.WriteString("\n\n")
		sb.WriteString(r.tr.T("bookings.flights_title", len(res.FlightBookings)))
		sb.WriteString("\n")
		sb.WriteString(r.table(strings.Split(r.tr.T("bookings.flight_columns"), "|"), rows))
	}
	if len(res.HotelBookings) > 0 {
		rows := make([][]string, 0, len(res.HotelBookings))
		for _, h := range res.HotelBookings {
			var name, loc string
			if h.Hotel != nil {
				name = h.Hotel.Name
				loc = h.Hotel.City + ", " + h.Hotel.Country
			}
			rows = append(rows, []string{name, loc, h.CheckInDate, h.CheckOutDate, h.RoomType,
				strconv.Itoa(h.NumberOfNights), h.Status, FormatCurrency(h.TotalPrice, h.Currency), h.BookingReference})
		}
		sb.WriteString("\n\n")
		sb.WriteString(r.tr.T("bookings.hotels_title", len(res.HotelBookings)))
		sb.WriteString("\n")
		sb.WriteString(r.table(strings.Split(r.tr.T("bookings.hotel_columns"), "|"), rows))
	}
	return sb.String()
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	if !r.styled {
		var sb strings.Builder
		sb.WriteString(strings.Join(headers, " | "))
		for _, row := range rows {
			sb.WriteString("\n")
			sb.WriteString(strings.Join(row, " | "))
		}
		return sb.String()
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.st.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}
