package database

import (
	"context"
	"fmt"
)

// The hosted project owns these tables in production; this bootstrap makes a
// bare Postgres usable for local runs and the integration suite.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		full_name TEXT,
		avatar_url TEXT,
		company_name TEXT,
		phone TEXT,
		role TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('client', 'admin', 'developer')),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS contact_inquiries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		company TEXT,
		phone TEXT,
		subject TEXT,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'contacted', 'converted', 'closed')),
		priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		assigned_to UUID REFERENCES profiles(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS services (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		description TEXT,
		short_description TEXT,
		price_range TEXT,
		duration_estimate TEXT,
		features TEXT[] NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		client_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'inquiry' CHECK (status IN ('inquiry', 'proposal', 'in_progress', 'completed', 'cancelled')),
		budget_range TEXT,
		service_type TEXT,
		start_date TIMESTAMP WITH TIME ZONE,
		deadline TIMESTAMP WITH TIME ZONE,
		completed_date TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_profiles_email ON profiles(email)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_inquiries_status ON contact_inquiries(status)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_inquiries_created_at ON contact_inquiries(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_services_display_order ON services(display_order) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
