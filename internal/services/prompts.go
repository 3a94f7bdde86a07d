package services

// Built-in prompt pieces for the optimization engine. Each can be
// overridden through the settings store; these are the fallbacks.

const DefaultSystemPrompt = `You are an expert in CV optimization for ATS (Applicant Tracking Systems).

JOB OFFER:
{jobDescription}

ORIGINAL CV (structured JSON format):
{cvText}

INSTRUCTIONS:
{instructions}

Your task:
1. Extract the job title and company name from the offer
2. Optimize the CV according to the specified mode (keeping the JSON structure)
3. Calculate a matching score (0-100) between the optimized CV and the offer
4. List the main changes made
5. Provide additional suggestions

IMPORTANT GUIDELINES:
- The optimized CV must maintain the same JSON structure as the original CV
- ALL content in the JSON must be IN {lang} (descriptions, changes, suggestions, etc.)
- For skills: keep ONLY the 8-10 MOST relevant skills from the original CV for this offer, and add relevant technical keywords from the offer (maximum 10 skills total)
- For experience descriptions: be straight to the point, concise, and relevant to the job offer. Focus on achievements and metrics where possible.

Respond ONLY with a JSON object IN {lang} (no text before or after):
{structure}`

const DefaultInstructionLight = `Light Mode: Subtle optimization improving keywords and clarity without changing the core content. Focus on correcting errors and improving professional phrasing.`

const DefaultInstructionNormal = `Normal Mode: Balance between fidelity and optimization. Rephrase bullet points to be more impact-oriented. Add relevant keywords from the job offer where appropriate. Ensure the tone is confident and professional.`

const DefaultInstructionAggressive = `Aggressive Mode: Maximize matching score. Heavily reformulate to align with the offer. Massively integrate keywords. Reorganize structure to highlight relevant elements. Detail relevant experiences. If highly relevant, you can add 1-2 realistic tasks to RECENT experiences only if consistent.`

const DefaultStructurePrompt = `{
  "optimizedCV": {
    "name": "First Last",
    "email": "email@example.com",
    "phone": "+33612345678",
    "about": "Optimized professional description IN {lang}",
    "skills": ["Skill 1", "Skill 2"],
    "experience": [
      {
        "title": "Job title",
        "company": "Company",
        "period": "Period",
        "description": "Optimized description IN {lang} (concise & relevant)"
      }
    ],
    "education": [
      {
        "degree": "Degree",
        "institution": "Institution",
        "period": "Period"
      }
    ],
    "languages": [
      {
        "name": "Language",
        "level": "Level"
      }
    ],
    "hobbies": ["Hobby 1"],
    "certifications": ["Certification 1"]
  },
  "jobTitle": "job title extracted from the offer IN {lang}",
  "company": "company name (or 'Not specified' if absent)",
  "matchScore": number between 0 and 100,
  "changes": ["list IN {lang} of main changes made"],
  "suggestions": ["additional suggestions IN {lang} to improve the application"]
}`
