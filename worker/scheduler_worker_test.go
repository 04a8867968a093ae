package worker

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"reputely/models"
	"reputely/repository"
)

type stubCampaignRepo struct {
	repository.CampaignRepositoryInterface

	mu          sync.Mutex
	scheduled   []models.Campaign
	dripDue     []uint
	transitions []uint
	denyIDs     map[uint]bool
}

func (r *stubCampaignRepo) DueScheduled(now time.Time) ([]models.Campaign, error) {
	return r.scheduled, nil
}

func (r *stubCampaignRepo) ActiveWithDueDrip(now time.Time) ([]uint, error) {
	return r.dripDue, nil
}

func (r *stubCampaignRepo) TransitionStatus(id uint, from, to models.CampaignStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.denyIDs[id] {
		return false, nil
	}
	r.transitions = append(r.transitions, id)
	return true, nil
}

type recordingQueue struct {
	mu        sync.Mutex
	published []uint
}

func (q *recordingQueue) PublishDispatch(campaignID uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, campaignID)
	return nil
}

func scheduledCampaign(id uint) models.Campaign {
	c := models.Campaign{Status: models.CampaignStatusScheduled}
	c.ID = id
	return c
}

func TestTickPromotesScheduledCampaigns(t *testing.T) {
	repo := &stubCampaignRepo{
		scheduled: []models.Campaign{scheduledCampaign(1), scheduledCampaign(2)},
	}
	q := &recordingQueue{}
	sw := NewSchedulerWorker(repo, q)
	sw.Logger = log.New(io.Discard, "", 0)

	sw.Tick()

	if len(repo.transitions) != 2 {
		t.Errorf("transitions = %v, want both campaigns promoted", repo.transitions)
	}
	if len(q.published) != 2 {
		t.Errorf("published = %v, want dispatch for both campaigns", q.published)
	}
}

func TestTickSkipsLostTransitionRace(t *testing.T) {
	repo := &stubCampaignRepo{
		scheduled: []models.Campaign{scheduledCampaign(1), scheduledCampaign(2)},
		denyIDs:   map[uint]bool{1: true},
	}
	q := &recordingQueue{}
	sw := NewSchedulerWorker(repo, q)
	sw.Logger = log.New(io.Discard, "", 0)

	sw.Tick()

	if len(q.published) != 1 || q.published[0] != 2 {
		t.Errorf("published = %v, want only campaign 2 (campaign 1 lost the race)", q.published)
	}
}

func TestTickRequeuesDueDrips(t *testing.T) {
	repo := &stubCampaignRepo{dripDue: []uint{7, 9}}
	q := &recordingQueue{}
	sw := NewSchedulerWorker(repo, q)
	sw.Logger = log.New(io.Discard, "", 0)

	sw.Tick()

	if len(q.published) != 2 || q.published[0] != 7 || q.published[1] != 9 {
		t.Errorf("published = %v, want drip dispatch for campaigns 7 and 9", q.published)
	}
}
