package email

const subjectPointRegistered = "Seu ponto de coleta foi cadastrado"
