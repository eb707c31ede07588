package digest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/anakalachikova-cmd/sterladometr-bot/internal/common/clock/mocks"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/digest"
	digestMocks "github.com/anakalachikova-cmd/sterladometr-bot/internal/digest/mocks"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

type DigestServiceTestSuite struct {
	suite.Suite
	mockCtrl   *gomock.Controller
	mockClock  *clockMocks.MockClock
	mockPoster *digestMocks.MockPoster

	ctx     context.Context
	repo    *storage.Repository
	service *digest.Service
}

func (s *DigestServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockPoster = digestMocks.NewMockPoster(s.mockCtrl)
	s.ctx = context.Background()

	// 2026-03-10 22:00 UTC is 2026-03-11 01:00 in Moscow
	s.mockClock.EXPECT().Now().Return(time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)).AnyTimes()

	backend := storage.NewMemory()
	s.Require().NoError(backend.Save(s.ctx, []byte(`{
		"1": {"name": "Anna", "entries": {"2026-03-11": 500, "2026-03-01": 4000}, "moods": {"2026-03-11": "green"}},
		"2": {"name": "Boris", "entries": {"2026-03-05": 1200}, "moods": {}},
		"3": {"name": "Vera", "entries": {}, "moods": {"2026-03-10": "blue"}}
	}`)))
	repo, err := storage.NewRepository(&storage.Config{Backend: backend})
	s.Require().NoError(err)
	s.repo = repo

	service, err := digest.New(&digest.Config{
		Store:    s.repo,
		Poster:   s.mockPoster,
		Clock:    s.mockClock,
		Location: time.FixedZone("MSK", 3*60*60),
	})
	s.Require().NoError(err)
	s.service = service
}

func TestDigestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DigestServiceTestSuite))
}

func (s *DigestServiceTestSuite) TestNewValidates() {
	_, err := digest.New(nil)
	s.Error(err)
	_, err = digest.New(&digest.Config{Store: s.repo})
	s.Error(err)
}

func (s *DigestServiceTestSuite) TestWeeklyReport() {
	want := "📝 *Еженедельный отчёт* (2026-03-04 – 2026-03-11)\n" +
		"• Boris: 1,200 зн.\n" +
		"• Anna: 500 зн. (💚1)\n" +
		"• Vera: 0 зн. (💙1)\n" +
		"\nВсего: *1,700* зн."
	s.Equal(want, s.service.WeeklyReport(s.ctx))
}

func (s *DigestServiceTestSuite) TestMonthlyReport() {
	got := s.service.MonthlyReport(s.ctx)
	s.Contains(got, "📅 *Месячный отчёт* (2026-03-01 – 2026-03-11)")
	s.Contains(got, "• Anna: 4,500 зн. (💚1)")
	s.Contains(got, "Всего: *5,700* зн.")
}

func (s *DigestServiceTestSuite) TestTopReportSkipsZero() {
	want := "🏆 *ТОП-5 за неделю*\n" +
		"1. Boris — *1,200* зн. (*1* дн.)\n" +
		"2. Anna — *500* зн. (*1* дн.)\n" +
		"\n📌 Данные обновлены"
	s.Equal(want, s.service.TopReport(s.ctx))
}

func (s *DigestServiceTestSuite) TestPersonalReport() {
	text, ok, err := s.service.PersonalReport(s.ctx, 1, digest.SpanMonth)
	s.Require().NoError(err)
	s.True(ok)
	s.Contains(text, "👤 *Anna*\n📈 Статистика за месяц")
	s.Contains(text, "🖋 Написано: *4,500* зн.")
	s.Contains(text, "🎯 Среднее: *2,250* зн./день")

	text, ok, err = s.service.PersonalReport(s.ctx, 1, digest.SpanWeek)
	s.Require().NoError(err)
	s.True(ok)
	s.Contains(text, "📅 Дней: *1*")

	_, ok, err = s.service.PersonalReport(s.ctx, 99, digest.SpanWeek)
	s.NoError(err)
	s.False(ok)

	_, _, err = s.service.PersonalReport(s.ctx, 1, digest.Span("year"))
	s.ErrorIs(err, digest.ErrUnknownSpan)
}

func (s *DigestServiceTestSuite) TestPersonalReportZeroDays() {
	text, ok, err := s.service.PersonalReport(s.ctx, 3, digest.SpanWeek)
	s.Require().NoError(err)
	s.True(ok)
	s.Contains(text, "🎯 Среднее: *0* зн./день")
}

func (s *DigestServiceTestSuite) TestSendJobs() {
	gomock.InOrder(
		s.mockPoster.EXPECT().Post(gomock.Any(), digest.ReminderText).Return(nil),
		s.mockPoster.EXPECT().Post(gomock.Any(), s.service.WeeklyReport(s.ctx)).Return(nil),
		s.mockPoster.EXPECT().Post(gomock.Any(), s.service.MonthlyReport(s.ctx)).Return(nil),
	)
	s.NoError(s.service.SendReminder(s.ctx))
	s.NoError(s.service.SendWeekly(s.ctx))
	s.NoError(s.service.SendMonthly(s.ctx))
}

func (s *DigestServiceTestSuite) TestSendFailureIsWrapped() {
	boom := errors.New("chat not found")
	s.mockPoster.EXPECT().Post(gomock.Any(), gomock.Any()).Return(boom)
	err := s.service.SendWeekly(s.ctx)
	s.ErrorIs(err, boom)
	s.ErrorContains(err, "post weekly")
}
