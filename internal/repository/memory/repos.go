package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"blood-donation/internal/domain"
)

type bloodUnits struct{ sc *scope }

func (r *bloodUnits) Create(_ context.Context, unit *domain.BloodUnit) error {
	return r.sc.write("BloodUnits.Create", func(st *state) error {
		if _, ok := st.units[unit.ID]; ok {
			return fmt.Errorf("blood unit %s: %w", unit.ID, domain.ErrConflict)
		}
		now := r.sc.now()
		unit.CreatedAt, unit.UpdatedAt = now, now
		st.units[unit.ID] = *unit
		st.unitOrder = append(st.unitOrder, unit.ID)
		return nil
	})
}

func (r *bloodUnits) GetByID(_ context.Context, id uuid.UUID) (*domain.BloodUnit, error) {
	return r.get("BloodUnits.GetByID", id)
}

func (r *bloodUnits) GetForUpdate(_ context.Context, id uuid.UUID) (*domain.BloodUnit, error) {
	return r.get("BloodUnits.GetForUpdate", id)
}

func (r *bloodUnits) get(op string, id uuid.UUID) (*domain.BloodUnit, error) {
	var out *domain.BloodUnit
	err := r.sc.read(op, func(st *state) error {
		if u, ok := st.units[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *bloodUnits) Update(_ context.Context, unit *domain.BloodUnit) error {
	return r.sc.write("BloodUnits.Update", func(st *state) error {
		stored, ok := st.units[unit.ID]
		if !ok {
			return domain.ErrBloodUnitNotFound
		}
		stored.Status = unit.Status
		stored.RemainingVolume = unit.RemainingVolume
		stored.ExpiredDate = unit.ExpiredDate
		stored.UpdatedAt = r.sc.now()
		unit.UpdatedAt = stored.UpdatedAt
		st.units[unit.ID] = stored
		return nil
	})
}

func (r *bloodUnits) List(_ context.Context, filter domain.BloodUnitFilter, params domain.PaginationParams) ([]domain.BloodUnit, int64, error) {
	var matched []domain.BloodUnit
	err := r.sc.read("BloodUnits.List", func(st *state) error {
		for _, id := range st.unitOrder {
			u := st.units[id]
			if filter.Status != nil && u.Status != *filter.Status {
				continue
			}
			if filter.ComponentType != nil && u.ComponentType != *filter.ComponentType {
				continue
			}
			if filter.BloodGroup != nil && u.Group != *filter.BloodGroup {
				continue
			}
			if filter.BloodRh != nil && u.Rh != *filter.BloodRh {
				continue
			}
			if filter.MemberID != nil && u.MemberID != *filter.MemberID {
				continue
			}
			matched = append(matched, u)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ExpiredDate.Before(matched[j].ExpiredDate)
	})
	page, total := paginate(matched, params)
	return page, total, nil
}

func (r *bloodUnits) ListAvailableByTypes(_ context.Context, types []domain.BloodType, component domain.ComponentType, now time.Time) ([]domain.BloodUnit, error) {
	wanted := make(map[domain.BloodType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	out := []domain.BloodUnit{}
	err := r.sc.read("BloodUnits.ListAvailableByTypes", func(st *state) error {
		for _, id := range st.unitOrder {
			u := st.units[id]
			if u.Status == domain.UnitAvailable && u.ComponentType == component &&
				u.ExpiredDate.After(now) && u.RemainingVolume > 0 && wanted[u.BloodType] {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiredDate.Before(out[j].ExpiredDate) })
	return out, err
}

func (r *bloodUnits) ListExpiredForUpdate(_ context.Context, now time.Time, limit int) ([]domain.BloodUnit, error) {
	var out []domain.BloodUnit
	err := r.sc.read("BloodUnits.ListExpiredForUpdate", func(st *state) error {
		for _, id := range st.unitOrder {
			u := st.units[id]
			if !domain.BloodUnitMachine.IsTerminal(u.Status) && !u.ExpiredDate.After(now) {
				out = append(out, u)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiredDate.Before(out[j].ExpiredDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type unitActions struct{ sc *scope }

func (r *unitActions) Create(_ context.Context, action *domain.BloodUnitAction) error {
	return r.sc.write("BloodUnitActions.Create", func(st *state) error {
		action.CreatedAt = r.sc.now()
		st.unitActions = append(st.unitActions, *action)
		return nil
	})
}

func (r *unitActions) ListByUnit(_ context.Context, unitID uuid.UUID) ([]domain.BloodUnitAction, error) {
	out := []domain.BloodUnitAction{}
	err := r.sc.read("BloodUnitActions.ListByUnit", func(st *state) error {
		for _, a := range st.unitActions {
			if a.BloodUnitID == unitID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

type donations struct{ sc *scope }

func (r *donations) Create(_ context.Context, donation *domain.CampaignDonation) error {
	return r.sc.write("Donations.Create", func(st *state) error {
		for _, d := range st.donations {
			if d.CampaignID == donation.CampaignID && d.DonorID == donation.DonorID {
				return domain.ErrConflict
			}
		}
		now := r.sc.now()
		donation.CreatedAt, donation.UpdatedAt = now, now
		st.donations[donation.ID] = *donation
		st.donationOrder = append(st.donationOrder, donation.ID)
		return nil
	})
}

func (r *donations) GetByID(_ context.Context, id uuid.UUID) (*domain.CampaignDonation, error) {
	return r.find("Donations.GetByID", func(d domain.CampaignDonation) bool { return d.ID == id })
}

func (r *donations) GetForUpdate(_ context.Context, id uuid.UUID) (*domain.CampaignDonation, error) {
	return r.find("Donations.GetForUpdate", func(d domain.CampaignDonation) bool { return d.ID == id })
}

func (r *donations) GetByCampaignAndDonor(_ context.Context, campaignID, donorID uuid.UUID) (*domain.CampaignDonation, error) {
	return r.find("Donations.GetByCampaignAndDonor", func(d domain.CampaignDonation) bool {
		return d.CampaignID == campaignID && d.DonorID == donorID
	})
}

func (r *donations) find(op string, match func(domain.CampaignDonation) bool) (*domain.CampaignDonation, error) {
	var out *domain.CampaignDonation
	err := r.sc.read(op, func(st *state) error {
		for _, id := range st.donationOrder {
			if d := st.donations[id]; match(d) {
				out = &d
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *donations) UpdateStatus(_ context.Context, donation *domain.CampaignDonation) error {
	return r.sc.write("Donations.UpdateStatus", func(st *state) error {
		stored, ok := st.donations[donation.ID]
		if !ok {
			return domain.ErrDonationNotFound
		}
		stored.CurrentStatus = donation.CurrentStatus
		stored.Volume = donation.Volume
		stored.Note = donation.Note
		stored.UpdatedAt = r.sc.now()
		donation.UpdatedAt = stored.UpdatedAt
		st.donations[donation.ID] = stored
		return nil
	})
}

func (r *donations) MarkBloodUnitCreated(_ context.Context, id, unitID uuid.UUID) (bool, error) {
	won := false
	err := r.sc.write("Donations.MarkBloodUnitCreated", func(st *state) error {
		stored, ok := st.donations[id]
		if !ok || stored.IsBloodUnitCreated {
			return nil
		}
		stored.IsBloodUnitCreated = true
		stored.BloodUnitID = &unitID
		stored.UpdatedAt = r.sc.now()
		st.donations[id] = stored
		won = true
		return nil
	})
	return won, err
}

func (r *donations) CountActiveByCampaign(_ context.Context, campaignID uuid.UUID) (int64, error) {
	var n int64
	err := r.sc.read("Donations.CountActiveByCampaign", func(st *state) error {
		for _, d := range st.donations {
			if d.CampaignID != campaignID {
				continue
			}
			if d.CurrentStatus == domain.DonationAppointmentCancelled || d.CurrentStatus == domain.DonationCustomerCancelled {
				continue
			}
			n++
		}
		return nil
	})
	return n, err
}

func (r *donations) ListByCampaign(_ context.Context, campaignID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	return r.list("Donations.ListByCampaign", func(d domain.CampaignDonation) bool { return d.CampaignID == campaignID }, params)
}

func (r *donations) ListByDonor(_ context.Context, donorID uuid.UUID, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	return r.list("Donations.ListByDonor", func(d domain.CampaignDonation) bool { return d.DonorID == donorID }, params)
}

func (r *donations) list(op string, match func(domain.CampaignDonation) bool, params domain.PaginationParams) ([]domain.CampaignDonation, int64, error) {
	var matched []domain.CampaignDonation
	err := r.sc.read(op, func(st *state) error {
		for i := len(st.donationOrder) - 1; i >= 0; i-- {
			if d := st.donations[st.donationOrder[i]]; match(d) {
				matched = append(matched, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	page, total := paginate(matched, params)
	return page, total, nil
}

type donationLogs struct{ sc *scope }

func (r *donationLogs) Create(_ context.Context, log *domain.CampaignDonationLog) error {
	return r.sc.write("DonationLogs.Create", func(st *state) error {
		log.CreatedAt = r.sc.now()
		st.donationLogs = append(st.donationLogs, *log)
		return nil
	})
}

func (r *donationLogs) ListByDonation(_ context.Context, donationID uuid.UUID) ([]domain.CampaignDonationLog, error) {
	out := []domain.CampaignDonationLog{}
	err := r.sc.read("DonationLogs.ListByDonation", func(st *state) error {
		for _, l := range st.donationLogs {
			if l.CampaignDonationID == donationID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

type emergencyRequests struct{ sc *scope }

func (r *emergencyRequests) Create(_ context.Context, req *domain.EmergencyRequest) error {
	return r.sc.write("EmergencyRequests.Create", func(st *state) error {
		if _, ok := st.requests[req.ID]; ok {
			return fmt.Errorf("emergency request %s: %w", req.ID, domain.ErrConflict)
		}
		now := r.sc.now()
		req.CreatedAt, req.UpdatedAt = now, now
		st.requests[req.ID] = *req
		st.requestOrder = append(st.requestOrder, req.ID)
		return nil
	})
}

func (r *emergencyRequests) GetByID(_ context.Context, id uuid.UUID) (*domain.EmergencyRequest, error) {
	return r.get("EmergencyRequests.GetByID", id)
}

func (r *emergencyRequests) GetForUpdate(_ context.Context, id uuid.UUID) (*domain.EmergencyRequest, error) {
	return r.get("EmergencyRequests.GetForUpdate", id)
}

func (r *emergencyRequests) get(op string, id uuid.UUID) (*domain.EmergencyRequest, error) {
	var out *domain.EmergencyRequest
	err := r.sc.read(op, func(st *state) error {
		if req, ok := st.requests[id]; ok {
			out = &req
		}
		return nil
	})
	return out, err
}

func (r *emergencyRequests) Update(_ context.Context, req *domain.EmergencyRequest) error {
	return r.sc.write("EmergencyRequests.Update", func(st *state) error {
		stored, ok := st.requests[req.ID]
		if !ok {
			return domain.ErrEmergencyRequestNotFound
		}
		updated := *req
		updated.CreatedAt = stored.CreatedAt
		updated.RequestedByID = stored.RequestedByID
		updated.BloodType = stored.BloodType
		updated.ComponentType = stored.ComponentType
		updated.UpdatedAt = r.sc.now()
		req.UpdatedAt = updated.UpdatedAt
		st.requests[req.ID] = updated
		return nil
	})
}

func (r *emergencyRequests) List(_ context.Context, filter domain.EmergencyRequestFilter, params domain.PaginationParams) ([]domain.EmergencyRequest, int64, error) {
	var matched []domain.EmergencyRequest
	err := r.sc.read("EmergencyRequests.List", func(st *state) error {
		for i := len(st.requestOrder) - 1; i >= 0; i-- {
			req := st.requests[st.requestOrder[i]]
			if filter.Status != nil && req.Status != *filter.Status {
				continue
			}
			if filter.RequestedByID != nil && req.RequestedByID != *filter.RequestedByID {
				continue
			}
			if filter.ComponentType != nil && req.ComponentType != *filter.ComponentType {
				continue
			}
			if filter.BloodGroup != nil && req.Group != *filter.BloodGroup {
				continue
			}
			if filter.BloodRh != nil && req.Rh != *filter.BloodRh {
				continue
			}
			matched = append(matched, req)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	page, total := paginate(matched, params)
	return page, total, nil
}

func (r *emergencyRequests) ListPendingForUpdate(_ context.Context, bt domain.BloodType, component domain.ComponentType) ([]domain.EmergencyRequest, error) {
	out := []domain.EmergencyRequest{}
	err := r.sc.read("EmergencyRequests.ListPendingForUpdate", func(st *state) error {
		for _, id := range st.requestOrder {
			req := st.requests[id]
			if req.Status == domain.EmergencyPending && req.BloodType == bt && req.ComponentType == component {
				out = append(out, req)
			}
		}
		return nil
	})
	return out, err
}

func (r *emergencyRequests) ListExpirableForUpdate(_ context.Context, cutoff time.Time, limit int) ([]domain.EmergencyRequest, error) {
	var out []domain.EmergencyRequest
	err := r.sc.read("EmergencyRequests.ListExpirableForUpdate", func(st *state) error {
		for _, id := range st.requestOrder {
			req := st.requests[id]
			if !domain.EmergencyMachine.IsTerminal(req.Status) && !req.CreatedAt.After(cutoff) {
				out = append(out, req)
			}
		}
		return nil
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type emergencyLogs struct{ sc *scope }

func (r *emergencyLogs) Create(_ context.Context, log *domain.EmergencyRequestLog) error {
	return r.sc.write("EmergencyLogs.Create", func(st *state) error {
		log.CreatedAt = r.sc.now()
		st.requestLogs = append(st.requestLogs, *log)
		return nil
	})
}

func (r *emergencyLogs) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.EmergencyRequestLog, error) {
	out := []domain.EmergencyRequestLog{}
	err := r.sc.read("EmergencyLogs.ListByRequest", func(st *state) error {
		for _, l := range st.requestLogs {
			if l.EmergencyRequestID == requestID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

type campaigns struct{ sc *scope }

func (r *campaigns) Create(_ context.Context, campaign *domain.Campaign) error {
	return r.sc.write("Campaigns.Create", func(st *state) error {
		now := r.sc.now()
		campaign.CreatedAt, campaign.UpdatedAt = now, now
		st.campaigns[campaign.ID] = *campaign
		st.campaignOrder = append(st.campaignOrder, campaign.ID)
		return nil
	})
}

func (r *campaigns) GetByID(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return r.get("Campaigns.GetByID", id)
}

func (r *campaigns) GetForUpdate(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return r.get("Campaigns.GetForUpdate", id)
}

func (r *campaigns) get(op string, id uuid.UUID) (*domain.Campaign, error) {
	var out *domain.Campaign
	err := r.sc.read(op, func(st *state) error {
		if c, ok := st.campaigns[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *campaigns) Update(_ context.Context, campaign *domain.Campaign) error {
	return r.sc.write("Campaigns.Update", func(st *state) error {
		stored, ok := st.campaigns[campaign.ID]
		if !ok {
			return domain.ErrCampaignNotFound
		}
		updated := *campaign
		updated.CreatedAt = stored.CreatedAt
		updated.CreatedBy = stored.CreatedBy
		updated.UpdatedAt = r.sc.now()
		campaign.UpdatedAt = updated.UpdatedAt
		st.campaigns[campaign.ID] = updated
		return nil
	})
}

func (r *campaigns) List(_ context.Context, status *domain.CampaignStatus, params domain.PaginationParams) ([]domain.Campaign, int64, error) {
	var matched []domain.Campaign
	err := r.sc.read("Campaigns.List", func(st *state) error {
		for _, id := range st.campaignOrder {
			if c := st.campaigns[id]; status == nil || c.Status == *status {
				matched = append(matched, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].StartDate.After(matched[j].StartDate) })
	page, total := paginate(matched, params)
	return page, total, nil
}

func (r *campaigns) RefreshStatuses(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.sc.write("Campaigns.RefreshStatuses", func(st *state) error {
		for id, c := range st.campaigns {
			next := c.Status
			switch {
			case c.Status == domain.CampaignEnded:
				continue
			case c.EndDate.Before(now):
				next = domain.CampaignEnded
			case c.Status == domain.CampaignNotStarted && !c.StartDate.After(now):
				next = domain.CampaignActive
			}
			if next != c.Status {
				c.Status = next
				c.UpdatedAt = r.sc.now()
				st.campaigns[id] = c
				n++
			}
		}
		return nil
	})
	return n, err
}

type customers struct{ sc *scope }

func (r *customers) GetByAccountID(_ context.Context, accountID uuid.UUID) (*domain.Customer, error) {
	var out *domain.Customer
	err := r.sc.read("Customers.GetByAccountID", func(st *state) error {
		if c, ok := st.customers[accountID]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *customers) Upsert(_ context.Context, customer *domain.Customer) error {
	return r.sc.write("Customers.Upsert", func(st *state) error {
		now := r.sc.now()
		if stored, ok := st.customers[customer.AccountID]; ok {
			customer.CreatedAt = stored.CreatedAt
		} else {
			customer.CreatedAt = now
		}
		customer.UpdatedAt = now
		st.customers[customer.AccountID] = *customer
		return nil
	})
}

func (r *customers) ListContactsByBloodTypes(_ context.Context, types []domain.BloodType) ([]domain.CustomerContact, error) {
	wanted := make(map[domain.BloodType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	out := []domain.CustomerContact{}
	err := r.sc.read("Customers.ListContactsByBloodTypes", func(st *state) error {
		for id, c := range st.customers {
			account, ok := st.accounts[id]
			if !ok || !account.IsActive {
				continue
			}
			bt, known := c.BloodType()
			if !known || !wanted[bt] {
				continue
			}
			out = append(out, domain.CustomerContact{
				Customer:  c,
				Email:     account.Email,
				FirstName: account.FirstName,
				LastName:  account.LastName,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID.String() < out[j].AccountID.String() })
	return out, err
}

func (r *customers) TouchLastDonation(_ context.Context, accountID uuid.UUID, at time.Time) error {
	return r.sc.write("Customers.TouchLastDonation", func(st *state) error {
		c, ok := st.customers[accountID]
		if !ok {
			return nil
		}
		c.LastDonationDate = &at
		c.UpdatedAt = r.sc.now()
		st.customers[accountID] = c
		return nil
	})
}
