package models

// WarningRecord es el contador de infracciones de un usuario en un canal
type WarningRecord struct {
	ChatID string `bson:"chatId" json:"chatId"`
	UserID string `bson:"userId" json:"userId"`
	Count  int    `bson:"count" json:"count"`
}
