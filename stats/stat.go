package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// RoundReport 樂透模擬統計報告
type RoundReport struct {
	Summary  *SummaryReport  `json:"Summary"`
	Mult     *MultReport     `json:"Mult"`
	Hits     *HitReport      `json:"Hits"`
	Operator *OperatorReport `json:"Operator"`
	Player   *PlayerReport   `json:"Player,omitzero"`
	isDone   bool
}

type SummaryReport struct {
	RuleName        string  `json:"RuleName"`
	PoolSize        int     `json:"PoolSize"`
	PickCount       int     `json:"PickCount"`
	TicketPrice     int     `json:"TicketPrice"`
	TicketsPerRound int     `json:"TicketsPerRound"`
	Rounds          int     `json:"Rounds"`
	Tickets         int     `json:"Tickets"`
	TotalBet        int     `json:"TotalBet"`
	TotalPrize      int     `json:"TotalPrize"`
	RTP             float64 `json:"RTP"`
	RtpCI           CI      `json:"RtpCI"`
	TheoryRTP       float64 `json:"TheoryRTP"`
	Std             float64 `json:"Std"`
	Cv              float64 `json:"Cv"`
	WinTickets      int     `json:"WinTickets"`
	HitRate         float64 `json:"HitRate"`
	NoWinRounds     int     `json:"NoWinRounds"`
}

// MultReport 以「單局獎金 / 單局投注」為單位的累計，供計算標準差。
//
// 紀錄時不紀錄，避免轉型成本。紀錄完成後由 recorder 整理填入
type MultReport struct {
	TotalMult      float64 `json:"TotalMult"`
	TotalMultSqSum float64 `json:"TotalMultSqSum"` // 平方和
}

// HitReport 命中數分布；索引即命中數 0..PickCount。
type HitReport struct {
	Prize  []int     `json:"Prize"`
	Count  []int     `json:"Count"`
	Freq   []float64 `json:"Freq"`
	FreqCI []CI      `json:"FreqCI"`
	Theory []float64 `json:"Theory"`
}

// OperatorReport 營運方帳務。
//
// BalanceDelta 依結算規則累加：售票收入 + Σ(抽成 - 獎金)。
type OperatorReport struct {
	Revenue      int     `json:"Revenue"`
	PaidOut      int     `json:"PaidOut"`
	Margin       int     `json:"Margin"`
	BalanceDelta int     `json:"BalanceDelta"`
	HoldRate     float64 `json:"HoldRate"`
}

// PlayerReport 玩家統計
//
// 需使用PlayerRecord 才會統計
type PlayerReport struct {
	InitBalance int  `json:"InitBalance"`
	Balance     int  `json:"Balance"`
	MaxBalance  int  `json:"MaxBalance"`
	MinBalance  int  `json:"MinBalance"`
	Rounds      int  `json:"Rounds"`
	Bust        bool `json:"Bust"`
	Cashout     bool `json:"Cashout"`
	Alive       bool `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 紀錄過程只處理 int，統計完成後呼叫 Done 一次性計算比例、標準差與信賴區間。
func (s *RoundReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Tickets > 0 {
		s.Summary.HitRate = float64(s.Summary.WinTickets) / float64(s.Summary.Tickets)
	}

	// Hits
	h := s.Hits
	n := s.Summary.Tickets
	h.Freq = make([]float64, len(h.Count))
	h.FreqCI = make([]CI, len(h.Count))
	for k, c := range h.Count {
		h.Freq[k], h.FreqCI[k] = proportionCICP(c, n, 0.95)
	}
	h.Theory = HitProbabilities(s.Summary.PoolSize, s.Summary.PickCount)
	s.Summary.TheoryRTP = TheoryRTP(h.Theory, h.Prize, s.Summary.TicketPrice)

	// Operator
	if s.Operator.Revenue > 0 {
		s.Operator.HoldRate = float64(s.Operator.BalanceDelta) / float64(s.Operator.Revenue)
	}

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總獎金 / 總投注）
func (s *RoundReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return (float64(s.Summary.TotalPrize) / float64(s.Summary.TotalBet))
}

// Std 回傳單局獎金的標準差（以單局投注為單位）
//
// 同一局的彩券共用開獎號碼，彼此不獨立，因此以局為樣本。
func (s *RoundReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	multPow := s.Mult.TotalMult * s.Mult.TotalMult
	variance := (s.Mult.TotalMultSqSum - multPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}

	std := math.Sqrt(variance)
	return std
}

// Cv 回傳單局獎金的變異係數
func (s *RoundReport) Cv() float64 {
	rtp := s.Rtp()
	std := s.Std()
	if rtp <= 0 {
		return 0
	}
	return (std / rtp)
}

// Ci 回傳(95% Rtp)信賴區間
func (s *RoundReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	ci := CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
	return ci
}

// Jackpots 回傳全中的彩券張數
func (s *RoundReport) Jackpots() int {
	if len(s.Hits.Count) == 0 {
		return 0
	}
	return s.Hits.Count[len(s.Hits.Count)-1]
}

func (s *RoundReport) WriteWith(w io.Writer, rep RoundReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 印出用時與摘要表、命中分布表。
func (s *RoundReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Rounds))
	fmt.Print(s.Table())
}

// Table 回傳摘要表與命中分布表（純文字）。
func (s *RoundReport) Table() string {
	sk, sm := s.fmtBasic()
	out := fmtTable(s.Summary.RuleName, sk, sm)
	hk, hm := s.fmtHits()
	out += fmtTable("Hit Distribution", hk, hm)
	ok, om := s.fmtOperator()
	out += fmtTable("Operator", ok, om)
	return out
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, rounds int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	rps := int(float64(rounds) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nrps : %d rounds/sec\n", sec, rps)
	}
	sc := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nrps : %d rounds/sec\n", m, sc, rps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nrps : %d rounds/sec\n", h, m, sc, rps)
}

func (s *RoundReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Rule":              p.Sprintf("%s (%d/%d)", s.Summary.RuleName, s.Summary.PickCount, s.Summary.PoolSize),
		"Total Rounds":      p.Sprintf("%d", s.Summary.Rounds),
		"Tickets / Round":   p.Sprintf("%d", s.Summary.TicketsPerRound),
		"Total Tickets":     p.Sprintf("%d", s.Summary.Tickets),
		"Total Bet":         p.Sprintf("%d", s.Summary.TotalBet),
		"Total Prize":       p.Sprintf("%d", s.Summary.TotalPrize),
		"Total RTP":         p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":        p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Theory RTP":        p.Sprintf("%.2f %%", 100.0*s.Summary.TheoryRTP),
		"Win Tickets":       p.Sprintf("%d", s.Summary.WinTickets),
		"Ticket Hit Rate":   p.Sprintf("%.3f %%", 100.0*s.Summary.HitRate),
		"NoWin Rounds":      p.Sprintf("%d", s.Summary.NoWinRounds),
		"STD (round units)": p.Sprintf("%.3f", s.Summary.Std),
		"CV":                p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Rule", "Total Rounds", "Tickets / Round", "Total Tickets", "Total Bet", "Total Prize", "Total RTP", "RTP 95% CI", "Theory RTP", "Win Tickets", "Ticket Hit Rate", "NoWin Rounds", "STD (round units)", "CV"}
	return keys, basic
}

func (s *RoundReport) fmtHits() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	keys := make([]string, 0, len(s.Hits.Count))
	msg := make(map[string]string, len(s.Hits.Count))
	for k := len(s.Hits.Count) - 1; k >= 0; k-- {
		key := p.Sprintf("%d hits (prize %d)", k, s.Hits.Prize[k])
		keys = append(keys, key)
		msg[key] = p.Sprintf("%d  %.4f%% [%.4f%%,%.4f%%]  theory %.4f%%",
			s.Hits.Count[k],
			100*s.Hits.Freq[k],
			100*s.Hits.FreqCI[k].Lo,
			100*s.Hits.FreqCI[k].Hi,
			100*s.Hits.Theory[k],
		)
	}
	return keys, msg
}

func (s *RoundReport) fmtOperator() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	op := map[string]string{
		"Revenue":       p.Sprintf("%d", s.Operator.Revenue),
		"Paid Out":      p.Sprintf("%d", s.Operator.PaidOut),
		"Margin":        p.Sprintf("%d", s.Operator.Margin),
		"Balance Delta": p.Sprintf("%d", s.Operator.BalanceDelta),
		"Hold Rate":     p.Sprintf("%.2f %%", 100.0*s.Operator.HoldRate),
	}
	keys := []string{"Revenue", "Paid Out", "Margin", "Balance Delta", "Hold Rate"}
	return keys, op
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title) / 2
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)

	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
