//go:build protogen

package orgschedule

import (
	"context"
	"time"

	"github.com/consulatcore/scheduling/internal/schedule"
	"github.com/consulatcore/scheduling/libs/grpcx"
	orgconfigv1 "github.com/consulatcore/scheduling/protos/gen/orgconfig/v1"
)

type grpcProvider struct {
	client orgconfigv1.OrgConfigServiceClient
}

// NewGRPCProvider resolves working hours from the org-configuration service.
// Requires generated clients (build with -tags protogen).
func NewGRPCProvider(addr string) (Provider, error) {
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: orgconfigv1.NewOrgConfigServiceClient(conn)}, nil
}

func (p *grpcProvider) DaySchedule(ctx context.Context, orgID string, day time.Time) (DaySchedule, error) {
	resp, err := p.client.GetDaySchedule(ctx, &orgconfigv1.DayScheduleRequest{
		OrgId: orgID,
		Date:  day.Format("2006-01-02"),
	})
	if err != nil {
		return DaySchedule{}, err
	}
	out := DaySchedule{Timezone: resp.GetTimezone()}
	if !resp.GetIsOpen() {
		return out, nil
	}
	out.Hours.Open = true
	for _, r := range resp.GetRanges() {
		cr := schedule.ClockRange{
			StartMinute: int(r.GetStartMinute()),
			EndMinute:   int(r.GetEndMinute()),
		}
		if cr.Valid() {
			out.Hours.Ranges = append(out.Hours.Ranges, cr)
		}
	}
	return out, nil
}
