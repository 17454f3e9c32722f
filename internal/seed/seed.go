// Package seed holds the demo dataset used on first run and in local-only mode.
package seed

import "github.com/unclebandit/clinic-crm/internal/model"

var customers = []model.Customer{
	{ID: "1", Name: "คุณ สมชาย ใจดี", Phone: "081-234-5678", Branch: model.BranchSiam, LastTreatment: "Laser Toning", ServiceDate: "2023-10-15", Status: model.Pending},
	{ID: "2", Name: "คุณ วีระศักดิ์ รักสวย", Phone: "089-987-6543", Branch: model.BranchSiam, LastTreatment: "Botox Full Face", ServiceDate: "2023-10-10", Status: model.Contacted, Notes: "สนใจโปรโมชั่นเดือนหน้า"},
	{ID: "3", Name: "คุณ แอนนา สวยเสมอ", Phone: "090-111-2222", Branch: model.BranchThonglor, LastTreatment: "Ultraformer III", ServiceDate: "2023-10-18", Status: model.Pending},
	{ID: "4", Name: "คุณ ปีเตอร์ แพท", Phone: "085-555-5555", Branch: model.BranchAri, LastTreatment: "Vitamin Drip", ServiceDate: "2023-10-20", Status: model.Booked, Notes: "จองคิวซ้ำแล้ว"},
	{ID: "5", Name: "คุณ มานี มีตา", Phone: "086-666-7777", Branch: model.BranchSiam, LastTreatment: "Acne Clear", ServiceDate: "2023-10-01", Status: model.NotInterested, Notes: "ย้ายบ้าน"},
}

var credentials = []model.Credential{
	{Email: "siam@clinic.com", Password: "123", Name: "Sales Siam", Branch: model.BranchSiam},
	{Email: "thonglor@clinic.com", Password: "123", Name: "Sales Thonglor", Branch: model.BranchThonglor},
	{Email: "ari@clinic.com", Password: "123", Name: "Sales Ari", Branch: model.BranchAri},
	{Email: "admin@clinic.com", Password: "123", Name: "Super Admin", Branch: model.BranchAll},
}

// Customers returns a fresh copy of the demo customers, so callers may mutate it.
func Customers() []model.Customer {
	out := make([]model.Customer, len(customers))
	copy(out, customers)
	return out
}

// Credentials returns the fallback login list.
func Credentials() []model.Credential {
	out := make([]model.Credential, len(credentials))
	copy(out, credentials)
	return out
}
