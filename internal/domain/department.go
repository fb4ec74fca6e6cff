package domain

import "strings"

// Department is one of the fixed hospital department codes.
type Department string

const (
	DepartmentEmergencyMedicine Department = "emergency-medicine"
	DepartmentRadiology         Department = "radiology"
	DepartmentCardiology        Department = "cardiology"
	DepartmentNeurology         Department = "neurology"
	DepartmentOncology          Department = "oncology"
	DepartmentOrthopedics       Department = "orthopedics"
	DepartmentPediatrics        Department = "pediatrics"
	DepartmentPharmacy          Department = "pharmacy"
	DepartmentLaboratory        Department = "laboratory"
	DepartmentSurgery           Department = "surgery"
	DepartmentICU               Department = "icu"
	DepartmentIT                Department = "it"
	DepartmentHR                Department = "hr"
	DepartmentAdministration    Department = "administration"
	DepartmentFacilities        Department = "facilities"
	DepartmentBilling           Department = "billing"
)

// DepartmentInfo pairs a code with its label.
type DepartmentInfo struct {
	Code  Department `json:"code"`
	Label string     `json:"label"`
}

// Departments lists every department in form order.
var Departments = []DepartmentInfo{
	{DepartmentEmergencyMedicine, "Emergency Medicine"},
	{DepartmentRadiology, "Radiology"},
	{DepartmentCardiology, "Cardiology"},
	{DepartmentNeurology, "Neurology"},
	{DepartmentOncology, "Oncology"},
	{DepartmentOrthopedics, "Orthopedics"},
	{DepartmentPediatrics, "Pediatrics"},
	{DepartmentPharmacy, "Pharmacy"},
	{DepartmentLaboratory, "Laboratory"},
	{DepartmentSurgery, "Surgery"},
	{DepartmentICU, "Intensive Care Unit (ICU)"},
	{DepartmentIT, "Information Technology (IT)"},
	{DepartmentHR, "Human Resources (HR)"},
	{DepartmentAdministration, "Administration"},
	{DepartmentFacilities, "Facilities & Maintenance"},
	{DepartmentBilling, "Billing & Insurance"},
}

// legacy signup form code
const departmentEmergencyAlias = "emergency"

// ParseDepartment normalises a department code.
func ParseDepartment(val string) (Department, bool) {
	norm := strings.ToLower(strings.TrimSpace(val))
	if norm == departmentEmergencyAlias {
		return DepartmentEmergencyMedicine, true
	}
	for _, d := range Departments {
		if string(d.Code) == norm {
			return d.Code, true
		}
	}
	return "", false
}
