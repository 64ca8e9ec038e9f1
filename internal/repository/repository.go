package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Store     Store
	Account   AccountRepository
	Customer  CustomerRepository
	Hospital  HospitalRepository
	Campaign  CampaignRepository
	Blog      BlogRepository
	BloodType BloodTypeRepository
	Stats     StatsRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Store:     NewStore(db),
		Account:   NewAccountRepository(db),
		Customer:  NewCustomerRepository(db),
		Hospital:  NewHospitalRepository(db),
		Campaign:  NewCampaignRepository(db),
		Blog:      NewBlogRepository(db),
		BloodType: NewBloodTypeRepository(db),
		Stats:     NewStatsRepository(db),
	}
}
