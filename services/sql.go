package services

import "gorm.io/gorm"

type dbProvider interface {
	Db() *gorm.DB
}

// dbOf picks the first registered sql service. Deployments register postgres;
// local dev and the test suites register sqlite.
func dbOf(candidates ...interface{}) *gorm.DB {
	for _, c := range candidates {
		if p, ok := c.(dbProvider); ok {
			if db := p.Db(); db != nil {
				return db
			}
		}
	}
	return nil
}
