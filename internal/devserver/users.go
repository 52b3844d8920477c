package devserver

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/teachmate/internal/models"
)

// Register creates an account. The password is stored as a bcrypt hash.
func (b *Backend) Register(in models.RegisterInput) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if username == "" || email == "" || in.Password == "" {
		return models.User{}, invalid("Username, email and password are required")
	}
	if len(in.Password) < 8 {
		return models.User{}, invalid("Password must be at least 8 characters")
	}

	b.mu.Lock()
	cost := b.hashCost
	b.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return models.User{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.byEmail[email]; taken {
		return models.User{}, invalid("Email is already registered")
	}
	for _, acc := range b.users {
		if strings.EqualFold(acc.Username, username) {
			return models.User{}, invalid("Username is already taken")
		}
	}

	now := b.now()
	acc := &account{
		User: models.User{
			ID:           newID(),
			Username:     username,
			FullName:     in.FullName,
			Email:        email,
			School:       in.School,
			Language:     "en",
			LastActiveAt: now,
			CreatedAt:    now,
		},
		passwordHash: hash,
	}
	b.users[acc.ID] = acc
	b.byEmail[email] = acc.ID
	b.log.WithField("user_id", acc.ID).Info("User registered")
	return b.selfUser(acc.ID), nil
}

// Authenticate checks the credentials and returns the account.
func (b *Backend) Authenticate(email, password string) (models.User, error) {
	b.mu.Lock()
	id, ok := b.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var hash []byte
	if ok {
		hash = b.users[id].passwordHash
	}
	b.mu.Unlock()

	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[id].LastActiveAt = b.now()
	return b.selfUser(id), nil
}

// UpdateLastActive marks the user as seen now.
func (b *Backend) UpdateLastActive(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acc, ok := b.users[userID]; ok {
		acc.LastActiveAt = b.now()
	}
}

func (b *Backend) Me(userID string) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[userID]; !ok {
		return models.User{}, ErrNotFound
	}
	return b.selfUser(userID), nil
}

// UpdateProfile applies the non-nil fields of update.
func (b *Backend) UpdateProfile(userID string, update models.ProfileUpdate) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if update.FullName != nil {
		acc.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.AvatarURL != nil {
		acc.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}
	if update.Bio != nil {
		if len(*update.Bio) > 1000 {
			return models.User{}, invalid("Bio must be at most 1000 characters")
		}
		acc.Bio = *update.Bio
	}
	if update.School != nil {
		acc.School = strings.TrimSpace(*update.School)
	}
	if update.Subjects != nil {
		acc.Subjects = append([]string(nil), update.Subjects...)
	}
	if update.Language != nil {
		acc.Language = *update.Language
	}
	return b.selfUser(userID), nil
}

func (b *Backend) GetUser(viewerID, id string) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[id]; !ok {
		return models.User{}, ErrNotFound
	}
	if id == viewerID {
		return b.selfUser(id), nil
	}
	return b.publicUser(id), nil
}

// SearchUsers matches query against username, full name and school.
func (b *Backend) SearchUsers(viewerID, query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.User{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.User{}
	for id, acc := range b.users {
		if id == viewerID {
			continue
		}
		if strings.Contains(strings.ToLower(acc.Username), q) ||
			strings.Contains(strings.ToLower(acc.FullName), q) ||
			strings.Contains(strings.ToLower(acc.School), q) {
			out = append(out, b.publicUser(id))
		}
	}
	sortUsers(out)
	return out
}

// Report files a moderation report against targetID.
func (b *Backend) Report(reporterID, targetID string, report models.Report) (ReportRecord, error) {
	if strings.TrimSpace(report.Reason) == "" {
		return ReportRecord{}, invalid("Reason is required")
	}
	if reporterID == targetID {
		return ReportRecord{}, invalid("You cannot report yourself")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[targetID]; !ok {
		return ReportRecord{}, ErrNotFound
	}
	rec := ReportRecord{
		ID:         newID(),
		ReporterID: reporterID,
		TargetID:   targetID,
		Report:     report,
		CreatedAt:  b.now(),
	}
	b.reports = append(b.reports, rec)
	return rec, nil
}

// Reports returns every report filed so far.
func (b *Backend) Reports() []ReportRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ReportRecord(nil), b.reports...)
}
