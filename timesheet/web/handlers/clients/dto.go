package clients

type CreateClientDTO struct {
	CompanyName          string  `json:"companyName" binding:"required"`
	ContactName          string  `json:"contactName" binding:"required"`
	Email                string  `json:"email" binding:"required,email"`
	Phone                *string `json:"phone"`
	Notes                *string `json:"notes"`
	MinimumBillableHours *int    `json:"minimumBillableHours" binding:"omitempty,min=0,max=24"`
}

type UpdateClientDTO struct {
	CompanyName          *string `json:"companyName" binding:"omitempty,min=1"`
	ContactName          *string `json:"contactName" binding:"omitempty,min=1"`
	Email                *string `json:"email" binding:"omitempty,email"`
	Phone                *string `json:"phone"`
	Notes                *string `json:"notes"`
	MinimumBillableHours *int    `json:"minimumBillableHours" binding:"omitempty,min=0,max=24"`
}

type CreateContactDTO struct {
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Phone     *string `json:"phone"`
	IsPrimary bool    `json:"isPrimary"`
}
