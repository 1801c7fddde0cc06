package lifecycle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"libraryapp/pkg/models"
	"libraryapp/pkg/notify"
)

// ScanOverdue flags every open loan whose due date is before today and
// returns how many loans were newly flagged. Running it again on the same
// day flags nothing.
func (s *Service) ScanOverdue(ctx context.Context, today time.Time) (int, error) {
	if today.IsZero() {
		today = s.clock.Now()
	}
	cutoff := models.Date(today)

	var marked int64
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		n, err := s.store.MarkOverdue(ctx, cutoff)
		if err != nil {
			return dependency("mark overdue", err)
		}
		marked = n
		return nil
	})
	if err != nil {
		return 0, wrapStore("scan overdue", err)
	}

	if marked > 0 {
		s.logger.Printf("Overdue scan for %s marked %d loan(s)", cutoff.Format(models.DateLayout), marked)
	}
	return int(marked), nil
}

// NotifyResult is the outcome for one overdue loan.
type NotifyResult struct {
	LoanUid   string
	MemberUid string
	Sent      bool
	Error     string
}

type NotifyReport struct {
	Processed int
	Sent      int
	Results   []NotifyResult
}

// NotifyOverdue sends one overdue notice per open overdue loan. A failed
// send is recorded in its result and does not stop the others.
func (s *Service) NotifyOverdue(ctx context.Context) (NotifyReport, error) {
	loans, err := s.store.ListLoans(ctx, models.LoanFilter{
		Returned: models.Bool(false),
		Overdue:  models.Bool(true),
	})
	if err != nil {
		return NotifyReport{}, dependency("list overdue loans", err)
	}

	results := make([]NotifyResult, len(loans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, loan := range loans {
		g.Go(func() error {
			res := NotifyResult{LoanUid: loan.LoanUid, MemberUid: loan.MemberUid}
			if err := s.notifyOverdueLoan(gctx, loan); err != nil {
				res.Error = err.Error()
				s.logger.Printf("Failed to send overdue notification for loan %s: %v", loan.LoanUid, err)
			} else {
				res.Sent = true
			}
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; per-loan failures live in results.
	_ = g.Wait()

	report := NotifyReport{Processed: len(loans), Results: results}
	for _, r := range results {
		if r.Sent {
			report.Sent++
		}
	}
	s.logger.Printf("Processed %d overdue loans, sent %d notifications", report.Processed, report.Sent)
	return report, nil
}

func (s *Service) notifyOverdueLoan(ctx context.Context, loan models.Loan) error {
	if s.notifier == nil {
		return fmt.Errorf("no notifier configured")
	}
	member, err := s.store.GetMember(ctx, loan.MemberUid)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	book, err := s.store.GetBook(ctx, loan.BookUid)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}

	return s.notifier.Notify(ctx, notify.Message{
		MemberUid: member.MemberUid,
		Recipient: member.Email,
		Template:  notify.TemplateLoanOverdue,
		Params: map[string]string{
			"member_name": member.Name,
			"book_title":  book.Title,
			"due_date":    loan.DueDate.Format(models.DateLayout),
		},
	})
}
