package database

import (
	"github.com/goldlinerides/goldline-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Ride{},
		&models.Message{},
		&models.DriverStatusChange{},
		&models.DeviceToken{},
	)
	if err != nil {
		return err
	}

	// Update users table
	if db.Migrator().HasTable(&models.User{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS vehicle_plate text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS vehicle_make text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS vehicle_color text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS user_type text DEFAULT 'rider'",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE users " + column).Error; err != nil {
				return err
			}
		}

		// Update constraints
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('rider', 'driver'))`)
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_status_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_status_check CHECK (status IN ('active', 'inactive', 'suspended'))`)
	}

	if db.Migrator().HasTable(&models.Ride{}) {
		db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_status_check`)
		db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_status_check CHECK (status IN ('pending', 'accepted', 'declined', 'in_progress', 'completed', 'cancelled'))`)
	}

	// Earlier deployments addressed messages by a participant-pair
	// conversation id instead of a ride id. Ride-scoped addressing is
	// canonical now: backfill ride_id for legacy rows that still carry
	// a conversation_id column, then drop the column.
	if err := migrateLegacyConversations(db); err != nil {
		return err
	}

	return nil
}

func migrateLegacyConversations(db *gorm.DB) error {
	var columnExists bool
	err := db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_name = 'messages'
			AND column_name = 'conversation_id'
		)`).Scan(&columnExists).Error
	if err != nil {
		return err
	}
	if !columnExists {
		return nil
	}

	// A legacy conversation id is "<loId>_<hiId>" over the participant
	// pair. Resolve it to the most recent ride between the two parties;
	// rows with no such ride keep ride_id 0 and fall out of thread
	// assembly, which matches how the old clients rendered them.
	if err := db.Exec(`
		UPDATE messages m
		SET ride_id = r.id
		FROM rides r
		WHERE (m.ride_id IS NULL OR m.ride_id = 0)
		  AND m.conversation_id <> ''
		  AND r.rider_id IS NOT NULL
		  AND m.conversation_id = LEAST(r.rider_id, r.driver_id) || '_' || GREATEST(r.rider_id, r.driver_id)
		  AND r.created_at = (
			SELECT MAX(r2.created_at) FROM rides r2
			WHERE r2.rider_id = r.rider_id AND r2.driver_id = r.driver_id
		  )`).Error; err != nil {
		return err
	}

	return db.Exec(`ALTER TABLE messages DROP COLUMN conversation_id`).Error
}
