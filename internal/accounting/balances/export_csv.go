package balances

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	csvFlushEvery  = 200
	csvBufferSize  = 32 * 1024
	csvMinorPerIDR = 1
)

// csvStreamer writes large trial balances without buffering the whole
// document in memory.
type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	printer      *message.Printer
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{
		buf:     buf,
		csv:     writer,
		printer: message.NewPrinter(language.Indonesian),
	}
}

func (s *csvStreamer) write(record []string) error {
	if err := s.csv.Write(record); err != nil {
		return err
	}
	s.pendingLines++
	if s.pendingLines >= csvFlushEvery {
		s.csv.Flush()
		s.pendingLines = 0
	}
	return s.csv.Error()
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	return s.buf.Flush()
}

func (s *csvStreamer) amount(minor int64) string {
	return s.printer.Sprintf("%d", minor/csvMinorPerIDR)
}

// WriteTrialBalanceCSV renders the trial balance as CSV with separate debit
// and credit columns, amounts grouped per Indonesian convention.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	streamer := newCSVStreamer(w)
	if err := streamer.write([]string{"code", "name", "class", "debit", "credit"}); err != nil {
		return err
	}
	for _, row := range tb.Rows {
		debit, credit := "", ""
		if row.Balance >= 0 {
			debit = streamer.amount(row.Balance)
		} else {
			credit = streamer.amount(-row.Balance)
		}
		record := []string{row.Code, row.Name, string(row.Class), debit, credit}
		if err := streamer.write(record); err != nil {
			return err
		}
	}
	totals := []string{"", "TOTAL", "", streamer.amount(tb.TotalDebit), streamer.amount(tb.TotalCredit)}
	if err := streamer.write(totals); err != nil {
		return err
	}
	if !tb.Balanced() {
		if err := streamer.write([]string{"", "OUT OF BALANCE", "", "", fmt.Sprintf("%d", tb.TotalDebit-tb.TotalCredit)}); err != nil {
			return err
		}
	}
	return streamer.flush()
}
