package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vidyasetu/dbt-portal/internal/model"
)

// ProfileRepo persists student profiles in the `student_profiles`
// table, one row per STUDENT user.  List-valued fields
// (disabilities, achievements) are stored as JSON columns; numeric
// fields are nullable columns so an unknown CGPA or income is NULL,
// never an empty string.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

const profileColumns = `u.name, u.email, p.phone, p.gender, p.category, p.father_name, p.mother_name,
 p.dob, p.address, p.district, p.state, p.college_name, p.course, p.year_of_study,
 p.cgpa, p.family_income, p.bank_account, p.ifsc_code, p.dbt_status, p.aadhaar,
 p.disabilities, p.achievements`

// Get loads the student profile for userID, with name and email
// joined from the users row.  Returns ErrProfileNotFound when no
// profile row exists.
func (r *ProfileRepo) Get(ctx context.Context, userID uint64) (model.StudentProfile, error) {
	var (
		p            model.StudentProfile
		cgpa         sql.NullFloat64
		income       sql.NullFloat64
		disabilities sql.NullString
		achievements sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+profileColumns+`
		 FROM student_profiles p JOIN users u ON u.id = p.user_id
		 WHERE p.user_id=? LIMIT 1`, userID).
		Scan(&p.Name, &p.Email, &p.Phone, &p.Gender, &p.Category, &p.FatherName, &p.MotherName,
			&p.DOB, &p.Address, &p.District, &p.State, &p.CollegeName, &p.Course, &p.YearOfStudy,
			&cgpa, &income, &p.BankAccount, &p.IFSCCode, &p.DBTStatus, &p.Aadhaar,
			&disabilities, &achievements)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	if err != nil {
		return p, err
	}
	p.ID = fmt.Sprintf("STU%d", userID)
	if cgpa.Valid {
		p.CGPA = model.Float(cgpa.Float64)
	}
	if income.Valid {
		p.FamilyIncome = model.Float(income.Float64)
	}
	p.Disabilities = decodeList(disabilities)
	p.Achievements = decodeList(achievements)
	return p, nil
}

// Upsert writes the profile row for userID, inserting on first save.
func (r *ProfileRepo) Upsert(ctx context.Context, userID uint64, p model.StudentProfile) error {
	disabilities, err := encodeList(p.Disabilities)
	if err != nil {
		return err
	}
	achievements, err := encodeList(p.Achievements)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO student_profiles
		   (user_id, phone, gender, category, father_name, mother_name, dob, address, district, state,
			college_name, course, year_of_study, cgpa, family_income, bank_account, ifsc_code,
			dbt_status, aadhaar, disabilities, achievements)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   phone=VALUES(phone), gender=VALUES(gender), category=VALUES(category),
		   father_name=VALUES(father_name), mother_name=VALUES(mother_name), dob=VALUES(dob),
		   address=VALUES(address), district=VALUES(district), state=VALUES(state),
		   college_name=VALUES(college_name), course=VALUES(course), year_of_study=VALUES(year_of_study),
		   cgpa=VALUES(cgpa), family_income=VALUES(family_income), bank_account=VALUES(bank_account),
		   ifsc_code=VALUES(ifsc_code), dbt_status=VALUES(dbt_status), aadhaar=VALUES(aadhaar),
		   disabilities=VALUES(disabilities), achievements=VALUES(achievements)`,
		userID, p.Phone, p.Gender, p.Category, p.FatherName, p.MotherName, p.DOB, p.Address,
		p.District, p.State, p.CollegeName, p.Course, p.YearOfStudy,
		nullFloat(p.CGPA), nullFloat(p.FamilyIncome), p.BankAccount, p.IFSCCode,
		p.DBTStatus, p.Aadhaar, disabilities, achievements)
	return err
}

func nullFloat(n model.NullFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Value, Valid: n.Valid}
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(col.String), &list); err != nil {
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	return list
}
