package types

import "time"

// Proposal actions
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Moderation statuses shared by perfumes and proposals
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Users
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:256;uniqueIndex;not null"`
	DisplayName  string `gorm:"size:100"`
	PhotoURL     string `gorm:"size:512"`
	AuthProvider string `gorm:"size:16;default:google"` // google, local
	PasswordHash string `gorm:"size:128" json:"-"`
	IsModerator  bool   `gorm:"default:false"`
	CreatedAt    time.Time
}

// Catalog entries: originals and their dupes
type Perfume struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Tipo            string  `gorm:"size:16;not null"` // original | dupe
	ParentID        *string `gorm:"size:36;index"`
	Nombre          string  `gorm:"size:200;not null"`
	Marca           string  `gorm:"size:100;index"`
	ML              uint16  `gorm:"default:0"`
	ImagenPrincipal string  `gorm:"size:512"`
	URLFragrantica  string  `gorm:"size:512"`
	Slug            string  `gorm:"size:256;uniqueIndex"`
	Status          string  `gorm:"size:16;default:pending;index"`
	CreatedBy       string  `gorm:"size:36;not null"`
	ApprovedBy      *string `gorm:"size:36"`
	ApprovedAt      *time.Time
	// Denormalized vote aggregates, recomputed on every vote write
	AvgParecido   float64 `gorm:"default:0"`
	AvgCalidad    float64 `gorm:"default:0"`
	AvgDuracion   float64 `gorm:"default:0"`
	AvgProyeccion float64 `gorm:"default:0"`
	VotesCount    uint32  `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PerfumeTag struct {
	ID        string `gorm:"primaryKey;size:36"`
	PerfumeID string `gorm:"size:36;not null;uniqueIndex:uniq_perfume_tag"`
	Tag       string `gorm:"size:50;not null;uniqueIndex:uniq_perfume_tag"`
}

type PerfumeURL struct {
	ID        string `gorm:"primaryKey;size:36"`
	PerfumeID string `gorm:"size:36;not null;index"`
	Tipo      string `gorm:"size:32"`
	URL       string `gorm:"size:512;not null"`
}

// Crowdsourced catalog-change proposals awaiting moderation
type Proposal struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PerfumeID   *string   `gorm:"size:36;index"` // nil for create proposals
	Action      string    `gorm:"size:16;not null"`
	Data        []byte    `gorm:"type:json"`
	Reason      string    `gorm:"size:500"`
	Status      string    `gorm:"size:16;default:pending;index"`
	ProposedBy  string    `gorm:"size:36;not null;index"`
	ProposedAt  time.Time `gorm:"autoCreateTime"`
	ReviewedBy  *string   `gorm:"size:36"`
	ReviewedAt  *time.Time
	ReviewNotes string `gorm:"size:500"`
}

// Price-tracking groups
type Group struct {
	ID          string  `gorm:"primaryKey;size:36"`
	Name        string  `gorm:"size:100;not null"`
	Description string  `gorm:"size:500"`
	OwnerID     string  `gorm:"size:36;not null"`
	InviteCode  string  `gorm:"size:16;uniqueIndex"`
	PublicRead  bool    `gorm:"default:false"`
	PublicSlug  *string `gorm:"size:50;uniqueIndex"`
	CreatedAt   time.Time
}

type GroupMember struct {
	ID       string    `gorm:"primaryKey;size:36"`
	GroupID  string    `gorm:"size:36;not null;uniqueIndex:uniq_group_member"`
	UserID   string    `gorm:"size:36;not null;uniqueIndex:uniq_group_member"`
	Role     string    `gorm:"size:16;default:member"` // owner, editor, member, viewer
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// Shopping-trip expeditions
type Expedition struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Nombre     string  `gorm:"size:100;not null"`
	Fecha      time.Time
	Visibility string  `gorm:"size:16;default:personal"` // personal | group
	GroupID    *string `gorm:"size:36;index"`
	OwnerID    string  `gorm:"size:36;not null;index"`
	Estado     string  `gorm:"size:16;default:planificando"` // planificando, activa, cerrada
	ClosedAt   *time.Time
	CreatedAt  time.Time
}

type ExpeditionMember struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ExpeditionID string    `gorm:"size:36;not null;uniqueIndex:uniq_expedition_member"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:uniq_expedition_member"`
	Role         string    `gorm:"size:16;default:viewer"` // owner, editor, viewer
	JoinedAt     time.Time `gorm:"autoCreateTime"`
}

type ExpeditionItem struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ExpeditionID string    `gorm:"size:36;not null;index"`
	PerfumeID    *string   `gorm:"size:36"`
	NombreManual string    `gorm:"size:200"`
	Status       string    `gorm:"size:16;default:pendiente"` // pendiente, probado, no_encontrado, comprado, descartado
	AddedBy      string    `gorm:"size:36;not null"`
	AddedAt      time.Time `gorm:"autoCreateTime"`
}

type ExpeditionItemNote struct {
	ID        string `gorm:"primaryKey;size:36"`
	ItemID    string `gorm:"size:36;not null;index"`
	UserID    string `gorm:"size:36;not null"`
	Nota      string `gorm:"size:1000;not null"`
	Rating    *uint8
	CreatedAt time.Time
}

// Group-scoped stores and their tracked prices
type GroupStore struct {
	ID        string `gorm:"primaryKey;size:36"`
	GroupID   string `gorm:"size:36;not null;index"`
	Nombre    string `gorm:"size:100;not null"`
	Tipo      string `gorm:"size:16;not null"` // fisica | online
	Direccion string `gorm:"size:255"`
	URL       string `gorm:"size:512"`
	CreatedBy string `gorm:"size:36;not null"`
	CreatedAt time.Time
}

type GroupPerfumePrice struct {
	ID        string  `gorm:"primaryKey;size:36"`
	GroupID   string  `gorm:"size:36;not null;uniqueIndex:uniq_group_price"`
	PerfumeID string  `gorm:"size:36;not null;uniqueIndex:uniq_group_price"`
	StoreID   string  `gorm:"size:36;not null;uniqueIndex:uniq_group_price"`
	Precio    float64 `gorm:"type:decimal(10,2);not null"`
	Agotado   bool    `gorm:"default:false"`
	Nota      string  `gorm:"size:255"`
	UpdatedBy string  `gorm:"size:36;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PriceHistory struct {
	ID         string    `gorm:"primaryKey;size:36"`
	PerfumeID  string    `gorm:"size:36;not null;index"`
	StoreID    string    `gorm:"size:36;not null;index"`
	Precio     float64   `gorm:"type:decimal(10,2);not null"`
	RecordedBy string    `gorm:"size:36;not null"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// Multi-axis votes; scope is global or group, group votes carry the group id
type Vote struct {
	ID         string `gorm:"primaryKey;size:36"`
	PerfumeID  string `gorm:"size:36;not null;uniqueIndex:uniq_vote"`
	UserID     string `gorm:"size:36;not null;uniqueIndex:uniq_vote"`
	Scope      string `gorm:"size:16;default:global;uniqueIndex:uniq_vote"`
	GroupID    string `gorm:"size:36;default:'';uniqueIndex:uniq_vote"` // empty for global votes
	Calidad    *uint8
	Proyeccion *uint8
	Duracion   *uint8
	Parecido   *uint8
	Comentario string `gorm:"size:1000"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
