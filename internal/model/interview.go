package model

import "time"

// Interview は模擬面接を表す。作成は外部で行われ、本サービスからは参照のみ。
type Interview struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Role      string    `json:"role" bson:"role"`
	Level     string    `json:"level" bson:"level"`
	Type      string    `json:"type" bson:"type"`
	TechStack []string  `json:"techstack" bson:"techstack"`
	Questions []string  `json:"questions" bson:"questions"`
	Finalized bool      `json:"finalized" bson:"finalized"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// TranscriptTurn は面接記録の1発話を表す。
type TranscriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
