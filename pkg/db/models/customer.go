package models

// Customer is an entry of the customer directory owned by one agent.
type Customer struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	Name    string `gorm:"column:name;type:text;not null"`
	City    string `gorm:"column:city;type:text"`
	AgentID string `gorm:"column:agent_id;type:text;not null;index"`
}

func (Customer) TableName() string { return "customers" }
